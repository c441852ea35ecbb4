package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"foyer-backend/models"
)

func roomNumbers(rooms []models.Room) []int64 {
	out := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Number)
	}
	return out
}

func TestAvailableRooms(t *testing.T) {
	ctx := context.Background()
	c := newCampus(t)
	now := day(2024, 10, 1)
	svc := NewAvailabilityService(c.store, FixedClock{At: now}, quietLogger(), 5*time.Second)

	room101, room102, room103 := c.room(101), c.room(102), c.room(103)
	for _, r := range []models.Reservation{
		// previous academic year, still flagged valid
		{ID: "101-A-2024", AcademicYear: datatypes.Date(day(2024, 3, 1)), Valid: true, RoomID: &room101},
		// current year but invalidated
		{ID: "103-A-2024", AcademicYear: datatypes.Date(day(2024, 9, 20)), Valid: false, RoomID: &room103},
		// current year and valid
		{ID: "102-A-2025", AcademicYear: datatypes.Date(day(2025, 8, 31)), Valid: true, RoomID: &room102},
	} {
		r := r
		require.NoError(t, c.store.SaveReservation(ctx, &r))
	}

	simple, err := svc.AvailableRooms(ctx, "ESPRIT", models.RoomTypeSimple)
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, roomNumbers(simple))

	double, err := svc.AvailableRooms(ctx, "ESPRIT", models.RoomTypeDouble)
	require.NoError(t, err)
	assert.Empty(t, double)

	triple, err := svc.AvailableRooms(ctx, "ESPRIT", models.RoomTypeTriple)
	require.NoError(t, err)
	assert.Equal(t, []int64{103}, roomNumbers(triple))

	none, err := svc.AvailableRooms(ctx, "ENIT", models.RoomTypeSimple)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.AvailableRooms(ctx, "MIT", models.RoomTypeSimple)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailableRoomsAllUniversities(t *testing.T) {
	ctx := context.Background()
	c := newCampus(t)

	// a third university whose foyer has no blocs
	empty := models.Foyer{Name: "Empty"}
	require.NoError(t, c.store.SaveFoyer(ctx, &empty))
	require.NoError(t, c.store.SaveUniversity(ctx, &models.University{Name: "INSAT", FoyerID: &empty.ID}))

	svc := NewAvailabilityService(c.store, FixedClock{At: day(2024, 10, 1)}, quietLogger(), 5*time.Second)
	svc.Concurrency = 2

	res := c.reservations(day(2024, 10, 1), ReservationOptions{})
	_, err := res.Create(ctx, c.room(101), 12345678)
	require.NoError(t, err)

	all, err := svc.AvailableRoomsAllUniversities(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.ElementsMatch(t, []int64{102, 103, 104}, roomNumbers(all["ESPRIT"]))
	assert.Contains(t, all, "ENIT")
	assert.Empty(t, all["ENIT"])
	assert.Contains(t, all, "INSAT")
	assert.Empty(t, all["INSAT"])

	double := models.RoomTypeDouble
	onlyDouble, err := svc.AvailableRoomsAllUniversities(ctx, &double)
	require.NoError(t, err)
	require.Len(t, onlyDouble, 3)
	assert.Equal(t, []int64{102}, roomNumbers(onlyDouble["ESPRIT"]))
}

func TestAvailabilitySnapshotJob(t *testing.T) {
	c := newCampus(t)
	svc := NewAvailabilityService(c.store, FixedClock{At: day(2024, 10, 1)}, quietLogger(), 5*time.Second)

	var published map[string]int
	var runs []bool
	job := &AvailabilitySnapshotJob{
		Availability: svc,
		Publish:      func(counts map[string]int) { published = counts },
		Record:       func(ok bool) { runs = append(runs, ok) },
		Log:          quietLogger(),
	}
	job.Run()

	assert.Equal(t, map[string]int{"ESPRIT": 4, "ENIT": 0}, published)
	assert.Equal(t, []bool{true}, runs)
}
