package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"foyer-backend/metrics"
	"foyer-backend/models"
	"foyer-backend/store"
)

// CollisionPolicy decides what happens when a new reservation's identifier
// is already taken (same room, bloc and calendar year).
type CollisionPolicy string

const (
	// CollisionOverwrite replaces the existing record, last write wins.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionReject fails the creation with ErrConflict.
	CollisionReject CollisionPolicy = "reject"
)

func ParseCollisionPolicy(raw string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CollisionOverwrite:
		return CollisionOverwrite, nil
	case CollisionReject:
		return CollisionReject, nil
	}
	return "", fmt.Errorf("unknown reservation id collision policy %q", raw)
}

type ReservationOptions struct {
	// StoreTimeout bounds a whole operation, retry included.
	StoreTimeout time.Duration
	// LockTimeout bounds waiting for the student and room locks, together.
	LockTimeout time.Duration
	Collision   CollisionPolicy
}

type ReservationService struct {
	Store  store.Store
	Locker Locker
	Clock  Clock
	Log    *logrus.Logger
	Opts   ReservationOptions
}

func NewReservationService(st store.Store, locker Locker, clock Clock, log *logrus.Logger, opts ReservationOptions) *ReservationService {
	if opts.Collision == "" {
		opts.Collision = CollisionOverwrite
	}
	return &ReservationService{Store: st, Locker: locker, Clock: clock, Log: log, Opts: opts}
}

// ReservationID builds "<roomNumber>-<blocName>-<year>".
func ReservationID(roomNumber int64, blocName string, year int) string {
	return fmt.Sprintf("%d-%s-%d", roomNumber, blocName, year)
}

// UpdateReservationInput carries the fields a direct update may correct.
// nil fields are left unchanged.
type UpdateReservationInput struct {
	Valid        *bool      `json:"valid"`
	AcademicYear *time.Time `json:"academicYear"`
}

func (s *ReservationService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Opts.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Opts.StoreTimeout)
}

// lock takes keys in the order given, all within one LockTimeout, and returns
// an unlock that releases them in reverse. Keys are passed students first
// (ascending CIN) then the room, so two operations never wait on each other
// in a cycle. A lock that cannot be taken while the operation still has time
// left is reported as a Conflict.
func (s *ReservationService) lock(ctx context.Context, keys ...string) (func(), error) {
	lockCtx := ctx
	if s.Opts.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.Opts.LockTimeout)
		defer cancel()
	}

	unlocks := make([]func(), 0, len(keys))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, key := range keys {
		unlock, err := s.Locker.Lock(lockCtx, key)
		if err != nil {
			release()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrLockNotAcquired) {
				return nil, conflict("lock", key, "another reservation change on this room or student is in progress")
			}
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

// ----------------------------------------------------
// Create
// ----------------------------------------------------

// Create reserves the room for the student identified by cin. The capacity
// check counts every valid reservation on the room, whatever its academic
// year. A store conflict (deadlock, serialization failure) retries the whole
// operation once.
func (s *ReservationService) Create(ctx context.Context, roomID uint, cin int64) (*models.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.createOnce(ctx, roomID, cin)
	if errors.Is(err, store.ErrConflict) {
		metrics.RecordReservationRetry()
		s.Log.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "cin": cin}).
			Warn("⚠️ reservation write conflict, retrying once")
		res, err = s.createOnce(ctx, roomID, cin)
		if errors.Is(err, store.ErrConflict) {
			err = conflict("room", roomID, err.Error())
		}
	}
	if err != nil {
		metrics.RecordReservationRejected(rejectionReason(err))
		return nil, err
	}

	metrics.RecordReservationCreated()
	s.Log.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"room_id":        roomID,
		"cin":            cin,
	}).Info("✅ reservation created")
	return res, nil
}

func (s *ReservationService) createOnce(ctx context.Context, roomID uint, cin int64) (*models.Reservation, error) {
	if _, err := s.Store.RoomByID(ctx, roomID); err != nil {
		return nil, lookupErr(err, "room", roomID)
	}
	student, err := s.Store.StudentByCIN(ctx, cin)
	if err != nil {
		return nil, lookupErr(err, "student", cin)
	}

	unlock, err := s.lock(ctx, StudentLockKey(cin), RoomLockKey(roomID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created *models.Reservation
	err = s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		if _, err := tx.LockStudent(ctx, student.ID); err != nil {
			return lookupErr(err, "student", cin)
		}
		room, err := tx.LockRoom(ctx, roomID)
		if err != nil {
			return lookupErr(err, "room", roomID)
		}

		count, err := tx.CountValidReservationsByRoom(ctx, room.ID)
		if err != nil {
			return fmt.Errorf("count reservations of room %d: %w", room.ID, err)
		}
		limit := CapacityFor(room.Type)
		if count >= int64(limit) {
			return capacityExceeded(room.ID, fmt.Sprintf("room %d of type %q holds %d, %d valid reservation(s)", room.Number, room.Type, limit, count))
		}

		active, err := tx.ValidReservationsByStudent(ctx, student.ID)
		if err != nil {
			return fmt.Errorf("reservations of student %d: %w", cin, err)
		}
		if len(active) > 0 {
			return invalidState("student", cin, fmt.Sprintf("already holds active reservation %s", active[0].ID))
		}

		if room.Bloc == nil {
			return invalidState("room", room.Number, "room is not assigned to a bloc")
		}

		now := s.Clock.Now()
		id := ReservationID(room.Number, room.Bloc.Name, now.Year())

		exists, err := tx.ReservationExists(ctx, id)
		if err != nil {
			return fmt.Errorf("check reservation %s: %w", id, err)
		}
		if exists {
			if s.Opts.Collision == CollisionReject {
				return conflict("reservation", id, "identifier already in use")
			}
			prev, err := tx.ReservationByID(ctx, id)
			if err != nil {
				return lookupErr(err, "reservation", id)
			}
			s.Log.WithFields(logrus.Fields{
				"reservation_id": id,
				"displaced":      studentCINs(prev.Students),
				"was_valid":      prev.Valid,
			}).Warn("⚠️ reservation identifier collision, overwriting previous record")
		}

		r := &models.Reservation{
			ID:           id,
			AcademicYear: datatypes.Date(dateOnly(now)),
			Valid:        true,
			RoomID:       &room.ID,
			Students:     []models.Student{*student},
		}
		if err := tx.SaveReservation(ctx, r); err != nil {
			return fmt.Errorf("save reservation %s: %w", id, err)
		}
		r.Room = room
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ----------------------------------------------------
// Cancel
// ----------------------------------------------------

// Cancel removes the student from their active reservation. When nobody is
// left the reservation becomes invalid and releases its room.
func (s *ReservationService) Cancel(ctx context.Context, cin int64) (*models.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	student, err := s.Store.StudentByCIN(ctx, cin)
	if err != nil {
		return nil, lookupErr(err, "student", cin)
	}

	active, err := s.Store.ValidReservationsByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("reservations of student %d: %w", cin, err)
	}
	if len(active) == 0 {
		return nil, notFound("active reservation", cin)
	}

	keys := []string{StudentLockKey(cin)}
	if active[0].RoomID != nil {
		keys = append(keys, RoomLockKey(*active[0].RoomID))
	}
	unlock, err := s.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *models.Reservation
	err = s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		if _, err := tx.LockStudent(ctx, student.ID); err != nil {
			return lookupErr(err, "student", cin)
		}
		active, err := tx.ValidReservationsByStudent(ctx, student.ID)
		if err != nil {
			return fmt.Errorf("reservations of student %d: %w", cin, err)
		}
		if len(active) == 0 {
			return notFound("active reservation", cin)
		}
		if len(active) > 1 {
			s.Log.WithFields(logrus.Fields{"cin": cin, "count": len(active)}).
				Warn("⚠️ student holds several active reservations, cancelling the earliest")
		}
		r := active[0]
		if r.RoomID != nil {
			if _, err := tx.LockRoom(ctx, *r.RoomID); err != nil {
				return lookupErr(err, "room", *r.RoomID)
			}
		}

		remaining := make([]models.Student, 0, len(r.Students))
		for _, st := range r.Students {
			if st.ID != student.ID {
				remaining = append(remaining, st)
			}
		}
		r.Students = remaining
		if len(remaining) == 0 {
			r.Valid = false
			r.RoomID = nil
			r.Room = nil
		}

		if err := tx.SaveReservation(ctx, &r); err != nil {
			return fmt.Errorf("save reservation %s: %w", r.ID, err)
		}
		updated = &r
		return nil
	})
	if errors.Is(err, store.ErrConflict) {
		err = conflict("student", cin, err.Error())
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordReservationCancelled(!updated.Valid)
	s.Log.WithFields(logrus.Fields{
		"reservation_id": updated.ID,
		"cin":            cin,
		"valid":          updated.Valid,
	}).Info("reservation cancelled for student")
	return updated, nil
}

// ----------------------------------------------------
// Update (validity / academic year correction)
// ----------------------------------------------------

// Update corrects the validity flag or the academic-year anchor. Turning a
// reservation valid again needs its room and a free place in it.
func (s *ReservationService) Update(ctx context.Context, id string, in UpdateReservationInput) (*models.Reservation, error) {
	if in.Valid == nil && in.AcademicYear == nil {
		return nil, validationError("nothing to update: provide valid and/or academicYear")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.Store.ReservationByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "reservation", id)
	}

	revalidate := in.Valid != nil && *in.Valid && !current.Valid
	if revalidate {
		if current.RoomID == nil {
			return nil, invalidState("reservation", id, "has no room to revalidate against")
		}
		keys := make([]string, 0, len(current.Students)+1)
		for _, st := range byCIN(current.Students) {
			keys = append(keys, StudentLockKey(st.CIN))
		}
		keys = append(keys, RoomLockKey(*current.RoomID))
		unlock, err := s.lock(ctx, keys...)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var updated *models.Reservation
	err = s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		r, err := tx.ReservationByID(ctx, id)
		if err != nil {
			return lookupErr(err, "reservation", id)
		}

		if in.Valid != nil && *in.Valid && !r.Valid {
			if r.RoomID == nil {
				return invalidState("reservation", id, "has no room to revalidate against")
			}
			if len(r.Students) == 0 {
				return invalidState("reservation", id, "has no students")
			}
			for _, st := range byCIN(r.Students) {
				if _, err := tx.LockStudent(ctx, st.ID); err != nil {
					return lookupErr(err, "student", st.CIN)
				}
			}
			room, err := tx.LockRoom(ctx, *r.RoomID)
			if err != nil {
				return lookupErr(err, "room", *r.RoomID)
			}
			count, err := tx.CountValidReservationsByRoom(ctx, room.ID)
			if err != nil {
				return fmt.Errorf("count reservations of room %d: %w", room.ID, err)
			}
			limit := CapacityFor(room.Type)
			if count+1 > int64(limit) || len(r.Students) > limit {
				return capacityExceeded(room.ID, fmt.Sprintf("room %d of type %q holds %d", room.Number, room.Type, limit))
			}
			for _, st := range r.Students {
				others, err := tx.ValidReservationsByStudent(ctx, st.ID)
				if err != nil {
					return fmt.Errorf("reservations of student %d: %w", st.CIN, err)
				}
				if len(others) > 0 {
					return invalidState("student", st.CIN, fmt.Sprintf("already holds active reservation %s", others[0].ID))
				}
			}
		}

		if in.Valid != nil {
			r.Valid = *in.Valid
		}
		if in.AcademicYear != nil {
			r.AcademicYear = datatypes.Date(dateOnly(*in.AcademicYear))
		}

		if err := tx.SaveReservation(ctx, r); err != nil {
			return fmt.Errorf("save reservation %s: %w", id, err)
		}
		updated = r
		return nil
	})
	if errors.Is(err, store.ErrConflict) {
		err = conflict("reservation", id, err.Error())
	}
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"reservation_id": id,
		"valid":          updated.Valid,
		"academic_year":  updated.AnchorTime().Format("2006-01-02"),
	}).Info("reservation updated")
	return updated, nil
}

// ----------------------------------------------------
// Queries
// ----------------------------------------------------

func (s *ReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	r, err := s.Store.ReservationByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "reservation", id)
	}
	return r, nil
}

func (s *ReservationService) List(ctx context.Context) ([]models.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Store.ListReservations(ctx)
}

// ListForUniversityAndYear returns the reservations (valid or not) of rooms in
// the university's foyer matching year. A start year ("2024") selects the
// whole academic year 2024-09-01..2025-08-31. An ISO date ("2024-10-01")
// selects the reservations anchored on exactly that date.
func (s *ReservationService) ListForUniversityAndYear(ctx context.Context, universityName, year string) ([]models.Reservation, error) {
	from, to, err := ParseAcademicYear(year)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.Store.UniversityByName(ctx, universityName); err != nil {
		return nil, lookupErr(err, "university", universityName)
	}
	return s.Store.ReservationsByUniversityInWindow(ctx, universityName, from, to)
}

// ParseAcademicYear resolves a start year to its academic-year window and an
// ISO date to a window of that single day.
func ParseAcademicYear(raw string) (time.Time, time.Time, error) {
	raw = strings.TrimSpace(raw)
	if y, err := strconv.Atoi(raw); err == nil && y > 0 && len(raw) == 4 {
		from, to := AcademicYearStarting(y)
		return from, to, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		d := dateOnly(t)
		return d, d, nil
	}
	return time.Time{}, time.Time{}, validationError(fmt.Sprintf("year %q must be a start year (2024) or a date (2024-10-01)", raw))
}

// byCIN returns a copy of students in ascending CIN order, the order their
// locks are taken in.
func byCIN(students []models.Student) []models.Student {
	out := append([]models.Student(nil), students...)
	sort.Slice(out, func(i, j int) bool { return out[i].CIN < out[j].CIN })
	return out
}

func studentCINs(students []models.Student) []int64 {
	out := make([]int64, 0, len(students))
	for _, st := range students {
		out = append(out, st.CIN)
	}
	return out
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
