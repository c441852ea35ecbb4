package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"foyer-backend/models"
	"foyer-backend/store"
	"foyer-backend/store/storetest"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// campus is a small dataset: ESPRIT owns a foyer with bloc A (rooms 101
// SIMPLE, 102 DOUBLE, 103 TRIPLE, 104 SUITE), ENIT has no foyer, room 900 has
// no bloc. It lives in a throwaway SQLite database.
type campus struct {
	store    *store.GormStore
	esprit   models.University
	enit     models.University
	foyer    models.Foyer
	blocA    models.Bloc
	rooms    map[int64]models.Room
	students map[int64]models.Student
}

func newCampus(t *testing.T) *campus {
	t.Helper()
	ctx := context.Background()
	st := storetest.New(t)
	c := &campus{store: st, rooms: map[int64]models.Room{}, students: map[int64]models.Student{}}

	c.foyer = models.Foyer{Name: "Foyer El Ghazala", Capacity: 100, Blocs: []models.Bloc{{Name: "A", Capacity: 50}}}
	require.NoError(t, st.SaveFoyer(ctx, &c.foyer))
	c.blocA = c.foyer.Blocs[0]

	c.esprit = models.University{Name: "ESPRIT", FoyerID: &c.foyer.ID}
	require.NoError(t, st.SaveUniversity(ctx, &c.esprit))
	c.enit = models.University{Name: "ENIT"}
	require.NoError(t, st.SaveUniversity(ctx, &c.enit))

	for number, typ := range map[int64]models.RoomType{
		101: models.RoomTypeSimple,
		102: models.RoomTypeDouble,
		103: models.RoomTypeTriple,
		104: models.RoomType("SUITE"),
	} {
		r := models.Room{Number: number, Type: typ, BlocID: &c.blocA.ID}
		require.NoError(t, st.SaveRoom(ctx, &r))
		c.rooms[number] = r
	}
	orphan := models.Room{Number: 900, Type: models.RoomTypeSimple}
	require.NoError(t, st.SaveRoom(ctx, &orphan))
	c.rooms[900] = orphan

	for i, cin := range []int64{12345678, 23456789, 34567890, 45678901} {
		s := models.Student{FirstName: "Student", LastName: string(rune('A' + i)), CIN: cin}
		require.NoError(t, st.SaveStudent(ctx, &s))
		c.students[cin] = s
	}
	return c
}

func (c *campus) room(number int64) uint { return c.rooms[number].ID }

func (c *campus) reservations(now time.Time, opts ReservationOptions) *ReservationService {
	if opts.StoreTimeout == 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.LockTimeout == 0 {
		opts.LockTimeout = time.Second
	}
	return NewReservationService(c.store, NewLocalLocker(), FixedClock{At: now}, quietLogger(), opts)
}
