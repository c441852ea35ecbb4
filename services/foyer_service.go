package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/store"
)

type FoyerService struct {
	Store store.Store
	Log   *logrus.Logger
}

func NewFoyerService(st store.Store, log *logrus.Logger) *FoyerService {
	return &FoyerService{Store: st, Log: log}
}

func (s *FoyerService) List(ctx context.Context) ([]models.Foyer, error) {
	return s.Store.ListFoyers(ctx)
}

// Get returns the foyer with its blocs.
func (s *FoyerService) Get(ctx context.Context, id uint) (*models.Foyer, error) {
	f, err := s.Store.FoyerByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "foyer", id)
	}
	blocs, err := s.Store.BlocsByFoyer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("blocs of foyer %d: %w", id, err)
	}
	f.Blocs = blocs
	return f, nil
}

// Create inserts the foyer together with any blocs in the payload.
func (s *FoyerService) Create(ctx context.Context, f *models.Foyer) error {
	f.ID = 0
	f.Name = strings.TrimSpace(f.Name)
	for i := range f.Blocs {
		f.Blocs[i].ID = 0
		f.Blocs[i].FoyerID = 0
		f.Blocs[i].Name = strings.TrimSpace(f.Blocs[i].Name)
	}
	if err := validateInput(f); err != nil {
		return err
	}
	if err := s.Store.SaveFoyer(ctx, f); err != nil {
		return fmt.Errorf("create foyer %q: %w", f.Name, err)
	}
	s.Log.WithFields(logrus.Fields{"foyer_id": f.ID, "blocs": len(f.Blocs)}).Info("foyer created")
	return nil
}

// Update changes name and capacity. Blocs are managed through the bloc
// endpoints.
func (s *FoyerService) Update(ctx context.Context, id uint, in models.Foyer) (*models.Foyer, error) {
	f, err := s.Store.FoyerByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "foyer", id)
	}
	f.Name = strings.TrimSpace(in.Name)
	f.Capacity = in.Capacity
	f.Blocs = nil
	if err := validateInput(f); err != nil {
		return nil, err
	}
	if err := s.Store.SaveFoyer(ctx, f); err != nil {
		return nil, fmt.Errorf("update foyer %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Delete removes the foyer and its blocs; rooms become unassigned and the
// owning university loses its foyer.
func (s *FoyerService) Delete(ctx context.Context, id uint) error {
	if err := s.Store.DeleteFoyer(ctx, id); err != nil {
		return lookupErr(err, "foyer", id)
	}
	s.Log.WithField("foyer_id", id).Info("foyer deleted")
	return nil
}
