package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/store"
)

type RoomService struct {
	Store store.Store
	Log   *logrus.Logger
}

func NewRoomService(st store.Store, log *logrus.Logger) *RoomService {
	return &RoomService{Store: st, Log: log}
}

func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	return s.Store.ListRooms(ctx)
}

func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	r, err := s.Store.RoomByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "room", id)
	}
	return r, nil
}

// Create accepts any type name; only SIMPLE, DOUBLE and TRIPLE rooms can
// ever be reserved.
func (s *RoomService) Create(ctx context.Context, r *models.Room) error {
	r.ID = 0
	r.Type = models.ParseRoomType(string(r.Type))
	r.Bloc = nil
	if err := validateInput(r); err != nil {
		return err
	}
	if r.BlocID != nil {
		if _, err := s.Store.BlocByID(ctx, *r.BlocID); err != nil {
			return lookupErr(err, "bloc", *r.BlocID)
		}
	}
	if CapacityFor(r.Type) == 0 {
		s.Log.WithFields(logrus.Fields{"number": r.Number, "type": r.Type}).
			Warn("⚠️ room type has no capacity, room will never be reservable")
	}
	if err := s.Store.SaveRoom(ctx, r); err != nil {
		return fmt.Errorf("create room %d: %w", r.Number, err)
	}
	return s.reload(ctx, r)
}

func (s *RoomService) Update(ctx context.Context, id uint, in models.Room) (*models.Room, error) {
	r, err := s.Store.RoomByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "room", id)
	}
	r.Number = in.Number
	r.Type = models.ParseRoomType(string(in.Type))
	r.BlocID = in.BlocID
	r.Bloc = nil
	if err := validateInput(r); err != nil {
		return nil, err
	}
	if r.BlocID != nil {
		if _, err := s.Store.BlocByID(ctx, *r.BlocID); err != nil {
			return nil, lookupErr(err, "bloc", *r.BlocID)
		}
	}
	if err := s.Store.SaveRoom(ctx, r); err != nil {
		return nil, fmt.Errorf("update room %d: %w", id, err)
	}
	return r, s.reload(ctx, r)
}

// Delete keeps the room's reservations as history with no room.
func (s *RoomService) Delete(ctx context.Context, id uint) error {
	if err := s.Store.DeleteRoom(ctx, id); err != nil {
		return lookupErr(err, "room", id)
	}
	s.Log.WithField("room_id", id).Info("room deleted")
	return nil
}

// ByUniversity lists every room in the university's foyer. A university with
// no foyer has no rooms.
func (s *RoomService) ByUniversity(ctx context.Context, universityName string) ([]models.Room, error) {
	if _, err := s.Store.UniversityByName(ctx, universityName); err != nil {
		return nil, lookupErr(err, "university", universityName)
	}
	return s.Store.RoomsByUniversity(ctx, universityName, nil)
}

func (s *RoomService) ByBlocAndType(ctx context.Context, blocID uint, roomType models.RoomType) ([]models.Room, error) {
	if _, err := s.Store.BlocByID(ctx, blocID); err != nil {
		return nil, lookupErr(err, "bloc", blocID)
	}
	return s.Store.RoomsByBlocAndType(ctx, blocID, roomType)
}

func (s *RoomService) reload(ctx context.Context, r *models.Room) error {
	fresh, err := s.Store.RoomByID(ctx, r.ID)
	if err != nil {
		return lookupErr(err, "room", r.ID)
	}
	*r = *fresh
	return nil
}
