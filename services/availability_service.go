package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"foyer-backend/models"
	"foyer-backend/store"
)

// AvailabilityService answers "which rooms are free this academic year".
// Availability is recomputed from the reservation ledger on every call; a
// room is free when it has no valid reservation anchored inside the current
// academic-year window.
type AvailabilityService struct {
	Store   store.Store
	Clock   Clock
	Log     *logrus.Logger
	Timeout time.Duration
	// Concurrency caps the universities evaluated in parallel.
	Concurrency int
}

func NewAvailabilityService(st store.Store, clock Clock, log *logrus.Logger, timeout time.Duration) *AvailabilityService {
	return &AvailabilityService{
		Store:       st,
		Clock:       clock,
		Log:         log,
		Timeout:     timeout,
		Concurrency: 4,
	}
}

func (s *AvailabilityService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// AvailableRooms returns the free rooms of roomType in the university's
// foyer. A university without a foyer or blocs has no rooms, which is not an
// error.
func (s *AvailabilityService) AvailableRooms(ctx context.Context, universityName string, roomType models.RoomType) ([]models.Room, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.Store.UniversityByName(ctx, universityName); err != nil {
		return nil, lookupErr(err, "university", universityName)
	}

	from, to := AcademicYearWindow(s.Clock.Now())
	return s.availableIn(ctx, universityName, &roomType, from, to)
}

// AvailableRoomsAllUniversities maps every university name to its free rooms.
// Every university gets an entry, including those without a foyer. A nil
// roomType considers rooms of every type.
func (s *AvailabilityService) AvailableRoomsAllUniversities(ctx context.Context, roomType *models.RoomType) (map[string][]models.Room, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	universities, err := s.Store.ListUniversities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}

	from, to := AcademicYearWindow(s.Clock.Now())
	result := make(map[string][]models.Room, len(universities))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for _, u := range universities {
		name := u.Name
		g.Go(func() error {
			rooms, err := s.availableIn(gctx, name, roomType, from, to)
			if err != nil {
				return fmt.Errorf("university %q: %w", name, err)
			}
			mu.Lock()
			result[name] = rooms
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"universities": len(result),
		"window_start": from.Format("2006-01-02"),
	}).Debug("availability computed for all universities")
	return result, nil
}

func (s *AvailabilityService) availableIn(ctx context.Context, universityName string, roomType *models.RoomType, from, to time.Time) ([]models.Room, error) {
	rooms, err := s.Store.RoomsByUniversity(ctx, universityName, roomType)
	if err != nil {
		return nil, fmt.Errorf("rooms of %q: %w", universityName, err)
	}

	free := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		active, err := s.Store.ValidReservationsByRoomInWindow(ctx, room.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("reservations of room %d: %w", room.ID, err)
		}
		if len(active) == 0 {
			free = append(free, room)
		}
	}
	return free, nil
}

// ----------------------------------------------------
// Snapshot job
// ----------------------------------------------------

// SnapshotPublisher receives the per-university free room counts.
type SnapshotPublisher func(counts map[string]int)

// AvailabilitySnapshotJob recomputes availability for every university and
// hands the counts to Publish. Failures are logged and the previous values
// are kept.
type AvailabilitySnapshotJob struct {
	Availability *AvailabilityService
	Publish      SnapshotPublisher
	Record       func(success bool)
	Log          *logrus.Logger
}

func (j *AvailabilitySnapshotJob) Run() {
	start := time.Now()
	m, err := j.Availability.AvailableRoomsAllUniversities(context.Background(), nil)
	if j.Record != nil {
		j.Record(err == nil)
	}
	if err != nil {
		entry := j.Log.WithError(err)
		if errors.Is(err, context.DeadlineExceeded) {
			entry = entry.WithField("timeout", j.Availability.Timeout)
		}
		entry.Warn("⚠️ availability snapshot failed")
		return
	}

	counts := make(map[string]int, len(m))
	for name, rooms := range m {
		counts[name] = len(rooms)
	}
	if j.Publish != nil {
		j.Publish(counts)
	}
	j.Log.WithFields(logrus.Fields{
		"universities": len(counts),
		"took":         time.Since(start).String(),
	}).Info("availability snapshot published")
}
