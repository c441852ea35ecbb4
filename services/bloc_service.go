package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/store"
)

type BlocService struct {
	Store store.Store
	Log   *logrus.Logger
}

func NewBlocService(st store.Store, log *logrus.Logger) *BlocService {
	return &BlocService{Store: st, Log: log}
}

func (s *BlocService) List(ctx context.Context) ([]models.Bloc, error) {
	return s.Store.ListBlocs(ctx)
}

func (s *BlocService) Get(ctx context.Context, id uint) (*models.Bloc, error) {
	b, err := s.Store.BlocByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "bloc", id)
	}
	return b, nil
}

func (s *BlocService) Create(ctx context.Context, b *models.Bloc) error {
	b.ID = 0
	b.Name = strings.TrimSpace(b.Name)
	if err := validateInput(b); err != nil {
		return err
	}
	if _, err := s.Store.FoyerByID(ctx, b.FoyerID); err != nil {
		return lookupErr(err, "foyer", b.FoyerID)
	}
	if err := s.Store.SaveBloc(ctx, b); err != nil {
		return fmt.Errorf("create bloc %q: %w", b.Name, err)
	}
	s.Log.WithFields(logrus.Fields{"bloc_id": b.ID, "foyer_id": b.FoyerID}).Info("bloc created")
	return nil
}

// Update may move the bloc to another foyer.
func (s *BlocService) Update(ctx context.Context, id uint, in models.Bloc) (*models.Bloc, error) {
	b, err := s.Store.BlocByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "bloc", id)
	}
	b.Name = strings.TrimSpace(in.Name)
	b.Capacity = in.Capacity
	if in.FoyerID != 0 && in.FoyerID != b.FoyerID {
		if _, err := s.Store.FoyerByID(ctx, in.FoyerID); err != nil {
			return nil, lookupErr(err, "foyer", in.FoyerID)
		}
		b.FoyerID = in.FoyerID
	}
	if err := validateInput(b); err != nil {
		return nil, err
	}
	if err := s.Store.SaveBloc(ctx, b); err != nil {
		return nil, fmt.Errorf("update bloc %d: %w", id, err)
	}
	return b, nil
}

// Delete leaves the bloc's rooms unassigned.
func (s *BlocService) Delete(ctx context.Context, id uint) error {
	if err := s.Store.DeleteBloc(ctx, id); err != nil {
		return lookupErr(err, "bloc", id)
	}
	s.Log.WithField("bloc_id", id).Info("bloc deleted")
	return nil
}

// AssignRooms points every listed room at the bloc. Nothing is written
// unless all numbers exist.
func (s *BlocService) AssignRooms(ctx context.Context, roomNumbers []int64, blocID uint) (*models.Bloc, []models.Room, error) {
	if len(roomNumbers) == 0 {
		return nil, nil, validationError("roomNumbers must not be empty")
	}

	var (
		bloc  *models.Bloc
		rooms []models.Room
	)
	err := s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		var err error
		bloc, err = tx.BlocByID(ctx, blocID)
		if err != nil {
			return lookupErr(err, "bloc", blocID)
		}

		found, err := tx.RoomsByNumbers(ctx, roomNumbers)
		if err != nil {
			return fmt.Errorf("rooms by number: %w", err)
		}
		if missing := missingNumbers(roomNumbers, found); len(missing) > 0 {
			return notFound("room", missing)
		}

		for i := range found {
			found[i].BlocID = &bloc.ID
			found[i].Bloc = nil
			if err := tx.SaveRoom(ctx, &found[i]); err != nil {
				return fmt.Errorf("assign room %d: %w", found[i].Number, err)
			}
			found[i].Bloc = bloc
		}
		rooms = found
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.Log.WithFields(logrus.Fields{"bloc_id": blocID, "rooms": len(rooms)}).Info("rooms assigned to bloc")
	return bloc, rooms, nil
}

func missingNumbers(wanted []int64, found []models.Room) []int64 {
	have := make(map[int64]bool, len(found))
	for _, r := range found {
		have[r.Number] = true
	}
	var missing []int64
	seen := map[int64]bool{}
	for _, n := range wanted {
		if !have[n] && !seen[n] {
			missing = append(missing, n)
			seen[n] = true
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
