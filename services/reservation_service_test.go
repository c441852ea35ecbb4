package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foyer-backend/models"
	"foyer-backend/store"
)

func TestReservationID(t *testing.T) {
	assert.Equal(t, "101-A-2024", ReservationID(101, "A", 2024))
}

func TestParseCollisionPolicy(t *testing.T) {
	p, err := ParseCollisionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollisionOverwrite, p)

	p, err = ParseCollisionPolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, CollisionReject, p)

	_, err = ParseCollisionPolicy("sequence")
	assert.Error(t, err)
}

func TestCreateReservation(t *testing.T) {
	c := newCampus(t)
	svc := c.reservations(time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), ReservationOptions{})

	r, err := svc.Create(context.Background(), c.room(101), 12345678)
	require.NoError(t, err)

	assert.Equal(t, "101-A-2024", r.ID)
	assert.True(t, r.Valid)
	assert.Equal(t, day(2024, 3, 15), r.AnchorTime())
	require.NotNil(t, r.RoomID)
	assert.Equal(t, c.room(101), *r.RoomID)
	require.Len(t, r.Students, 1)
	assert.Equal(t, int64(12345678), r.Students[0].CIN)

	stored, err := c.store.ReservationByID(context.Background(), "101-A-2024")
	require.NoError(t, err)
	assert.True(t, stored.Valid)
	assert.True(t, stored.HasStudent(c.students[12345678].ID))
}

func TestCreateReservation_NotFound(t *testing.T) {
	c := newCampus(t)
	svc := c.reservations(day(2024, 3, 15), ReservationOptions{})

	_, err := svc.Create(context.Background(), 9999, 12345678)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(context.Background(), c.room(101), 11111111)
	assert.ErrorIs(t, err, ErrNotFound)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "student", de.Entity)
	assert.Equal(t, int64(11111111), de.Key)
}

func TestCreateReservation_Capacity(t *testing.T) {
	ctx := context.Background()

	t.Run("simple room holding one reservation is full", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{})

		_, err := svc.Create(ctx, c.room(101), 12345678)
		require.NoError(t, err)

		_, err = svc.Create(ctx, c.room(101), 23456789)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("double room accepts a second reservation", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{})

		_, err := svc.Create(ctx, c.room(102), 12345678)
		require.NoError(t, err)

		_, err = svc.Create(ctx, c.room(102), 23456789)
		assert.NoError(t, err)
	})

	t.Run("capacity counts valid reservations of every year", func(t *testing.T) {
		c := newCampus(t)
		_, err := c.reservations(day(2023, 3, 15), ReservationOptions{}).Create(ctx, c.room(101), 12345678)
		require.NoError(t, err)

		_, err = c.reservations(day(2024, 10, 1), ReservationOptions{}).Create(ctx, c.room(101), 23456789)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("unknown room type is never reservable", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{})

		_, err := svc.Create(ctx, c.room(104), 12345678)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})
}

func TestCreateReservation_IdentifierCollision(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrite replaces the previous record", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{Collision: CollisionOverwrite})

		first, err := svc.Create(ctx, c.room(102), 12345678)
		require.NoError(t, err)
		second, err := svc.Create(ctx, c.room(102), 23456789)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)

		stored, err := c.store.ReservationByID(ctx, "102-A-2024")
		require.NoError(t, err)
		require.Len(t, stored.Students, 1)
		assert.Equal(t, int64(23456789), stored.Students[0].CIN)

		active, err := c.store.ValidReservationsByStudent(ctx, c.students[12345678].ID)
		require.NoError(t, err)
		assert.Empty(t, active, "the displaced student no longer holds a reservation")
	})

	t.Run("reject reports a conflict", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{Collision: CollisionReject})

		_, err := svc.Create(ctx, c.room(102), 12345678)
		require.NoError(t, err)
		_, err = svc.Create(ctx, c.room(102), 23456789)
		assert.ErrorIs(t, err, ErrConflict)

		stored, err := c.store.ReservationByID(ctx, "102-A-2024")
		require.NoError(t, err)
		require.Len(t, stored.Students, 1)
		assert.Equal(t, int64(12345678), stored.Students[0].CIN)
	})
}

func TestCreateReservation_InvalidState(t *testing.T) {
	ctx := context.Background()
	c := newCampus(t)
	svc := c.reservations(day(2024, 3, 15), ReservationOptions{})

	_, err := svc.Create(ctx, c.room(900), 12345678)
	assert.ErrorIs(t, err, ErrInvalidState, "room without bloc")

	_, err = svc.Create(ctx, c.room(103), 12345678)
	require.NoError(t, err)
	_, err = svc.Create(ctx, c.room(102), 12345678)
	assert.ErrorIs(t, err, ErrInvalidState, "student already holds an active reservation")
}

func TestCreateReservation_ConcurrentSameRoom(t *testing.T) {
	c := newCampus(t)
	svc := c.reservations(day(2024, 3, 15), ReservationOptions{LockTimeout: 5 * time.Second})

	cins := []int64{12345678, 23456789, 34567890, 45678901}
	var (
		wg        sync.WaitGroup
		succeeded int32
		full      int32
	)
	for _, cin := range cins {
		wg.Add(1)
		go func(cin int64) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), c.room(101), cin)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case assert.ErrorIs(t, err, ErrCapacityExceeded):
				atomic.AddInt32(&full, 1)
			}
		}(cin)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded)
	assert.Equal(t, int32(len(cins)-1), full)

	n, err := c.store.CountValidReservationsByRoom(context.Background(), c.room(101))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateReservation_ConcurrentSameStudent(t *testing.T) {
	for round := 0; round < 5; round++ {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{LockTimeout: 5 * time.Second})

		var (
			wg        sync.WaitGroup
			succeeded int32
			rejected  int32
		)
		for _, number := range []int64{102, 103} {
			wg.Add(1)
			go func(room uint) {
				defer wg.Done()
				_, err := svc.Create(context.Background(), room, 12345678)
				switch {
				case err == nil:
					atomic.AddInt32(&succeeded, 1)
				case assert.ErrorIs(t, err, ErrInvalidState):
					atomic.AddInt32(&rejected, 1)
				}
			}(c.room(number))
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded)
		assert.Equal(t, int32(1), rejected)

		active, err := c.store.ValidReservationsByStudent(context.Background(), c.students[12345678].ID)
		require.NoError(t, err)
		assert.Len(t, active, 1, "a student holds at most one active reservation")
	}
}

// keyRecorder records the keys a Locker hands out, in acquisition order.
type keyRecorder struct {
	Locker
	mu   sync.Mutex
	keys []string
}

func (k *keyRecorder) Lock(ctx context.Context, key string) (func(), error) {
	unlock, err := k.Locker.Lock(ctx, key)
	if err == nil {
		k.mu.Lock()
		k.keys = append(k.keys, key)
		k.mu.Unlock()
	}
	return unlock, err
}

// callRecorder wraps the transaction-bound store and records the lock and
// active-reservation calls made through it.
type callRecorder struct {
	*store.GormStore
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *callRecorder) WithinTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return r.GormStore.WithinTransaction(ctx, func(tx store.Store) error {
		return fn(&recordingTx{Store: tx, rec: r})
	})
}

type recordingTx struct {
	store.Store
	rec *callRecorder
}

func (tx *recordingTx) LockStudent(ctx context.Context, id uint) (*models.Student, error) {
	tx.rec.add("LockStudent")
	return tx.Store.LockStudent(ctx, id)
}

func (tx *recordingTx) LockRoom(ctx context.Context, id uint) (*models.Room, error) {
	tx.rec.add("LockRoom")
	return tx.Store.LockRoom(ctx, id)
}

func (tx *recordingTx) ValidReservationsByStudent(ctx context.Context, studentID uint) ([]models.Reservation, error) {
	tx.rec.add("ValidReservationsByStudent")
	return tx.Store.ValidReservationsByStudent(ctx, studentID)
}

func TestReservationLockOrder(t *testing.T) {
	ctx := context.Background()
	c := newCampus(t)
	locker := &keyRecorder{Locker: NewLocalLocker()}
	rec := &callRecorder{GormStore: c.store}
	svc := NewReservationService(rec, locker, FixedClock{At: day(2024, 3, 15)}, quietLogger(), ReservationOptions{})

	_, err := svc.Create(ctx, c.room(102), 12345678)
	require.NoError(t, err)
	assert.Equal(t, []string{StudentLockKey(12345678), RoomLockKey(c.room(102))}, locker.keys)
	assert.Equal(t, []string{"LockStudent", "LockRoom", "ValidReservationsByStudent"}, rec.calls,
		"the student row is locked before its active reservations are checked")

	_, err = svc.Update(ctx, "102-A-2024", UpdateReservationInput{Valid: boolPtr(false)})
	require.NoError(t, err)
	r, err := c.store.ReservationByID(ctx, "102-A-2024")
	require.NoError(t, err)
	r.Students = append(r.Students, c.students[23456789])
	require.NoError(t, c.store.SaveReservation(ctx, r))

	locker.keys, rec.calls = nil, nil
	_, err = svc.Update(ctx, "102-A-2024", UpdateReservationInput{Valid: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{
		StudentLockKey(12345678),
		StudentLockKey(23456789),
		RoomLockKey(c.room(102)),
	}, locker.keys)
	assert.Equal(t, []string{
		"LockStudent", "LockStudent", "LockRoom",
		"ValidReservationsByStudent", "ValidReservationsByStudent",
	}, rec.calls)

	locker.keys, rec.calls = nil, nil
	_, err = svc.Cancel(ctx, 23456789)
	require.NoError(t, err)
	assert.Equal(t, []string{StudentLockKey(23456789), RoomLockKey(c.room(102))}, locker.keys)
	assert.Equal(t, []string{"LockStudent", "ValidReservationsByStudent", "LockRoom"}, rec.calls)
}

// flakyStore fails the first `failures` transactions with a write conflict.
type flakyStore struct {
	*store.GormStore
	failures int32
}

func (s *flakyStore) WithinTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	if atomic.AddInt32(&s.failures, -1) >= 0 {
		return fmt.Errorf("deadlock found: %w", store.ErrConflict)
	}
	return s.GormStore.WithinTransaction(ctx, fn)
}

func TestCreateReservation_RetriesOnceOnConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("one conflict is absorbed", func(t *testing.T) {
		c := newCampus(t)
		st := &flakyStore{GormStore: c.store, failures: 1}
		svc := NewReservationService(st, NewLocalLocker(), FixedClock{At: day(2024, 3, 15)}, quietLogger(), ReservationOptions{})

		r, err := svc.Create(ctx, c.room(101), 12345678)
		require.NoError(t, err)
		assert.Equal(t, "101-A-2024", r.ID)
	})

	t.Run("a second conflict is reported", func(t *testing.T) {
		c := newCampus(t)
		st := &flakyStore{GormStore: c.store, failures: 2}
		svc := NewReservationService(st, NewLocalLocker(), FixedClock{At: day(2024, 3, 15)}, quietLogger(), ReservationOptions{})

		_, err := svc.Create(ctx, c.room(101), 12345678)
		assert.ErrorIs(t, err, ErrConflict)

		exists, err := c.store.ReservationExists(ctx, "101-A-2024")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestCreateReservation_RoomBusy(t *testing.T) {
	c := newCampus(t)
	locker := NewLocalLocker()
	svc := NewReservationService(c.store, locker, FixedClock{At: day(2024, 3, 15)}, quietLogger(), ReservationOptions{
		StoreTimeout: 5 * time.Second,
		LockTimeout:  20 * time.Millisecond,
	})

	unlock, err := locker.Lock(context.Background(), RoomLockKey(c.room(101)))
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Create(context.Background(), c.room(101), 12345678)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateReservation_StudentBusy(t *testing.T) {
	c := newCampus(t)
	locker := NewLocalLocker()
	svc := NewReservationService(c.store, locker, FixedClock{At: day(2024, 3, 15)}, quietLogger(), ReservationOptions{
		StoreTimeout: 5 * time.Second,
		LockTimeout:  20 * time.Millisecond,
	})

	unlock, err := locker.Lock(context.Background(), StudentLockKey(12345678))
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Create(context.Background(), c.room(102), 12345678)
	assert.ErrorIs(t, err, ErrConflict, "another booking for the same student is in progress")

	_, err = svc.Create(context.Background(), c.room(103), 23456789)
	assert.NoError(t, err, "other students are not blocked")
}

func TestCreateReservation_Timeout(t *testing.T) {
	c := newCampus(t)
	locker := NewLocalLocker()
	svc := NewReservationService(c.store, locker, FixedClock{At: day(2024, 3, 15)}, quietLogger(), ReservationOptions{
		StoreTimeout: 20 * time.Millisecond,
		LockTimeout:  time.Second,
	})

	unlock, err := locker.Lock(context.Background(), RoomLockKey(c.room(101)))
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Create(context.Background(), c.room(101), 12345678)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("sole student invalidates the reservation", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{})
		_, err := svc.Create(ctx, c.room(101), 12345678)
		require.NoError(t, err)

		r, err := svc.Cancel(ctx, 12345678)
		require.NoError(t, err)
		assert.False(t, r.Valid)
		assert.Nil(t, r.RoomID)
		assert.Empty(t, r.Students)

		stored, err := c.store.ReservationByID(ctx, "101-A-2024")
		require.NoError(t, err)
		assert.False(t, stored.Valid)
		assert.Nil(t, stored.RoomID)

		_, err = svc.Cancel(ctx, 12345678)
		assert.ErrorIs(t, err, ErrNotFound)

		// the room is free again
		_, err = svc.Create(ctx, c.room(101), 23456789)
		assert.NoError(t, err)
	})

	t.Run("remaining students keep the reservation valid", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{})
		r, err := svc.Create(ctx, c.room(103), 12345678)
		require.NoError(t, err)

		// two students sharing one reservation
		stored, err := c.store.ReservationByID(ctx, r.ID)
		require.NoError(t, err)
		stored.Students = append(stored.Students, c.students[23456789])
		require.NoError(t, c.store.SaveReservation(ctx, stored))

		got, err := svc.Cancel(ctx, 12345678)
		require.NoError(t, err)
		assert.True(t, got.Valid)
		require.NotNil(t, got.RoomID)
		require.Len(t, got.Students, 1)
		assert.Equal(t, int64(23456789), got.Students[0].CIN)
	})

	t.Run("unknown student and student without reservation", func(t *testing.T) {
		c := newCampus(t)
		svc := c.reservations(day(2024, 3, 15), ReservationOptions{})

		_, err := svc.Cancel(ctx, 11111111)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = svc.Cancel(ctx, 12345678)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateReservation(t *testing.T) {
	ctx := context.Background()
	c := newCampus(t)
	svc2024 := c.reservations(day(2024, 3, 15), ReservationOptions{})
	svc2025 := c.reservations(day(2025, 3, 15), ReservationOptions{})

	_, err := svc2024.Create(ctx, c.room(101), 12345678)
	require.NoError(t, err)

	_, err = svc2024.Update(ctx, "101-A-2024", UpdateReservationInput{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc2024.Update(ctx, "nope", UpdateReservationInput{Valid: boolPtr(false)})
	assert.ErrorIs(t, err, ErrNotFound)

	r, err := svc2024.Update(ctx, "101-A-2024", UpdateReservationInput{Valid: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, r.Valid)
	require.NotNil(t, r.RoomID, "invalidating keeps the room reference")

	// the room is taken by someone else meanwhile
	_, err = svc2025.Create(ctx, c.room(101), 23456789)
	require.NoError(t, err)

	_, err = svc2024.Update(ctx, "101-A-2024", UpdateReservationInput{Valid: boolPtr(true)})
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = svc2025.Cancel(ctx, 23456789)
	require.NoError(t, err)

	anchor := day(2024, 10, 1)
	r, err = svc2024.Update(ctx, "101-A-2024", UpdateReservationInput{Valid: boolPtr(true), AcademicYear: &anchor})
	require.NoError(t, err)
	assert.True(t, r.Valid)
	assert.Equal(t, anchor, r.AnchorTime())
}

func TestUpdateReservation_RevalidateWithoutRoom(t *testing.T) {
	ctx := context.Background()
	c := newCampus(t)
	svc := c.reservations(day(2024, 3, 15), ReservationOptions{})

	_, err := svc.Create(ctx, c.room(101), 12345678)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, 12345678)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "101-A-2024", UpdateReservationInput{Valid: boolPtr(true)})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestListForUniversityAndYear(t *testing.T) {
	ctx := context.Background()
	c := newCampus(t)
	svc := c.reservations(day(2024, 10, 1), ReservationOptions{})

	_, err := svc.Create(ctx, c.room(101), 12345678)
	require.NoError(t, err)

	list, err := svc.ListForUniversityAndYear(ctx, "ESPRIT", "2024")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "101-A-2024", list[0].ID)

	list, err = svc.ListForUniversityAndYear(ctx, "ESPRIT", "2024-10-01")
	require.NoError(t, err)
	require.Len(t, list, 1, "a date matches the anchor exactly")
	assert.Equal(t, "101-A-2024", list[0].ID)

	list, err = svc.ListForUniversityAndYear(ctx, "ESPRIT", "2025-03-01")
	require.NoError(t, err)
	assert.Empty(t, list, "a different date in the same academic year does not match")

	list, err = svc.ListForUniversityAndYear(ctx, "ESPRIT", "2023")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.ListForUniversityAndYear(ctx, "ENIT", "2024")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListForUniversityAndYear(ctx, "MIT", "2024")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListForUniversityAndYear(ctx, "ESPRIT", "soon")
	assert.ErrorIs(t, err, ErrValidation)
}

func boolPtr(b bool) *bool { return &b }
