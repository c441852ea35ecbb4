// Package store holds the Entity Store used by the reservation core: lookups
// by key, by secondary key, by relationship traversal, and insert-or-update
// saves. GormStore implements it over MySQL, PostgreSQL and SQLite.
package store

import (
	"context"
	"time"

	"foyer-backend/models"
)

type UniversityStore interface {
	ListUniversities(ctx context.Context) ([]models.University, error)
	UniversityByID(ctx context.Context, id uint) (*models.University, error)
	UniversityByName(ctx context.Context, name string) (*models.University, error)
	// UniversityByFoyer returns the university owning the foyer, ErrNotFound if orphaned.
	UniversityByFoyer(ctx context.Context, foyerID uint) (*models.University, error)
	SaveUniversity(ctx context.Context, u *models.University) error
	DeleteUniversity(ctx context.Context, id uint) error
}

type FoyerStore interface {
	ListFoyers(ctx context.Context) ([]models.Foyer, error)
	FoyerByID(ctx context.Context, id uint) (*models.Foyer, error)
	// SaveFoyer also inserts any blocs attached to f.Blocs.
	SaveFoyer(ctx context.Context, f *models.Foyer) error
	DeleteFoyer(ctx context.Context, id uint) error
}

type BlocStore interface {
	ListBlocs(ctx context.Context) ([]models.Bloc, error)
	BlocByID(ctx context.Context, id uint) (*models.Bloc, error)
	BlocsByFoyer(ctx context.Context, foyerID uint) ([]models.Bloc, error)
	SaveBloc(ctx context.Context, b *models.Bloc) error
	DeleteBloc(ctx context.Context, id uint) error
}

// RoomStore returns rooms with their Bloc populated when they have one.
type RoomStore interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	RoomByID(ctx context.Context, id uint) (*models.Room, error)
	// LockRoom re-reads the room and holds a row lock on it until the
	// surrounding transaction ends. Outside a transaction it behaves like RoomByID.
	LockRoom(ctx context.Context, id uint) (*models.Room, error)
	RoomsByNumbers(ctx context.Context, numbers []int64) ([]models.Room, error)
	RoomsByBlocAndType(ctx context.Context, blocID uint, roomType models.RoomType) ([]models.Room, error)
	// RoomsByUniversity follows university -> foyer -> bloc -> room. A nil
	// roomType returns rooms of every type.
	RoomsByUniversity(ctx context.Context, universityName string, roomType *models.RoomType) ([]models.Room, error)
	SaveRoom(ctx context.Context, r *models.Room) error
	DeleteRoom(ctx context.Context, id uint) error
}

type StudentStore interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	StudentByID(ctx context.Context, id uint) (*models.Student, error)
	StudentByCIN(ctx context.Context, cin int64) (*models.Student, error)
	// LockStudent re-reads the student and holds a row lock on it until the
	// surrounding transaction ends. Every write that checks the student's
	// active reservations takes it first, so two bookings for one student
	// on different rooms cannot both pass the check.
	LockStudent(ctx context.Context, id uint) (*models.Student, error)
	SaveStudent(ctx context.Context, s *models.Student) error
	DeleteStudent(ctx context.Context, id uint) error
}

// ReservationStore returns reservations with Students and Room (and the
// room's Bloc) populated.
type ReservationStore interface {
	ListReservations(ctx context.Context) ([]models.Reservation, error)
	ReservationByID(ctx context.Context, id string) (*models.Reservation, error)
	ReservationExists(ctx context.Context, id string) (bool, error)
	// SaveReservation inserts or overwrites the reservation and replaces its
	// student set with r.Students.
	SaveReservation(ctx context.Context, r *models.Reservation) error
	CountValidReservationsByRoom(ctx context.Context, roomID uint) (int64, error)
	// ValidReservationsByStudent is ordered by academic year then ID.
	ValidReservationsByStudent(ctx context.Context, studentID uint) ([]models.Reservation, error)
	ValidReservationsByRoomInWindow(ctx context.Context, roomID uint, from, to time.Time) ([]models.Reservation, error)
	ReservationsByUniversityInWindow(ctx context.Context, universityName string, from, to time.Time) ([]models.Reservation, error)
}

// Store is the full Entity Store.
type Store interface {
	UniversityStore
	FoyerStore
	BlocStore
	RoomStore
	StudentStore
	ReservationStore

	// WithinTransaction runs fn against a Store bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}
