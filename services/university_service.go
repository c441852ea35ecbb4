package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/store"
)

type UniversityService struct {
	Store store.Store
	Log   *logrus.Logger
}

func NewUniversityService(st store.Store, log *logrus.Logger) *UniversityService {
	return &UniversityService{Store: st, Log: log}
}

func (s *UniversityService) List(ctx context.Context) ([]models.University, error) {
	return s.Store.ListUniversities(ctx)
}

func (s *UniversityService) Get(ctx context.Context, id uint) (*models.University, error) {
	u, err := s.Store.UniversityByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "university", id)
	}
	return u, nil
}

// Create ignores any foyer in the payload; foyers are attached through
// AssignFoyer or CreateFoyerAndAssign.
func (s *UniversityService) Create(ctx context.Context, u *models.University) error {
	u.ID = 0
	u.Name = strings.TrimSpace(u.Name)
	u.FoyerID = nil
	u.Foyer = nil
	if err := validateInput(u); err != nil {
		return err
	}
	if err := s.Store.SaveUniversity(ctx, u); err != nil {
		return fmt.Errorf("create university %q: %w", u.Name, err)
	}
	s.Log.WithFields(logrus.Fields{"university_id": u.ID, "university": u.Name}).Info("university created")
	return nil
}

// Update changes name and address; the foyer link is left as it is.
func (s *UniversityService) Update(ctx context.Context, id uint, in models.University) (*models.University, error) {
	u, err := s.Store.UniversityByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "university", id)
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Address = in.Address
	u.Foyer = nil
	if err := validateInput(u); err != nil {
		return nil, err
	}
	if err := s.Store.SaveUniversity(ctx, u); err != nil {
		return nil, fmt.Errorf("update university %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *UniversityService) Delete(ctx context.Context, id uint) error {
	if err := s.Store.DeleteUniversity(ctx, id); err != nil {
		return lookupErr(err, "university", id)
	}
	s.Log.WithField("university_id", id).Info("university deleted")
	return nil
}

// ----------------------------------------------------
// Foyer links
// ----------------------------------------------------

// AssignFoyer links the foyer to the named university. A foyer already owned
// by another university is refused.
func (s *UniversityService) AssignFoyer(ctx context.Context, foyerID uint, universityName string) (*models.University, error) {
	var out *models.University
	err := s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		if _, err := tx.FoyerByID(ctx, foyerID); err != nil {
			return lookupErr(err, "foyer", foyerID)
		}
		u, err := tx.UniversityByName(ctx, universityName)
		if err != nil {
			return lookupErr(err, "university", universityName)
		}

		owner, err := tx.UniversityByFoyer(ctx, foyerID)
		switch {
		case err == nil && owner.ID != u.ID:
			return invalidState("foyer", foyerID, fmt.Sprintf("already assigned to university %q", owner.Name))
		case err != nil && !isStoreNotFound(err):
			return fmt.Errorf("owner of foyer %d: %w", foyerID, err)
		}

		u.FoyerID = &foyerID
		u.Foyer = nil
		if err := tx.SaveUniversity(ctx, u); err != nil {
			return fmt.Errorf("assign foyer %d to %q: %w", foyerID, universityName, err)
		}
		out, err = tx.UniversityByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"university": universityName, "foyer_id": foyerID}).Info("foyer assigned to university")
	return out, nil
}

// UnassignFoyer detaches the university's foyer. The foyer itself is kept.
func (s *UniversityService) UnassignFoyer(ctx context.Context, universityID uint) (*models.University, error) {
	var out *models.University
	err := s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		u, err := tx.UniversityByID(ctx, universityID)
		if err != nil {
			return lookupErr(err, "university", universityID)
		}
		if u.FoyerID == nil {
			return invalidState("university", universityID, "has no foyer assigned")
		}
		u.FoyerID = nil
		u.Foyer = nil
		if err := tx.SaveUniversity(ctx, u); err != nil {
			return fmt.Errorf("unassign foyer of university %d: %w", universityID, err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithField("university_id", universityID).Info("foyer unassigned from university")
	return out, nil
}

// CreateFoyerAndAssign writes the foyer, its blocs and the university link in
// one transaction.
func (s *UniversityService) CreateFoyerAndAssign(ctx context.Context, f *models.Foyer, universityID uint) (*models.University, error) {
	f.ID = 0
	for i := range f.Blocs {
		f.Blocs[i].ID = 0
		f.Blocs[i].FoyerID = 0
	}
	if err := validateInput(f); err != nil {
		return nil, err
	}

	var out *models.University
	err := s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		u, err := tx.UniversityByID(ctx, universityID)
		if err != nil {
			return lookupErr(err, "university", universityID)
		}
		if u.FoyerID != nil {
			return invalidState("university", universityID, fmt.Sprintf("already owns foyer %d", *u.FoyerID))
		}
		if err := tx.SaveFoyer(ctx, f); err != nil {
			return fmt.Errorf("create foyer %q: %w", f.Name, err)
		}
		u.FoyerID = &f.ID
		u.Foyer = nil
		if err := tx.SaveUniversity(ctx, u); err != nil {
			return fmt.Errorf("assign foyer %d to university %d: %w", f.ID, universityID, err)
		}
		out, err = tx.UniversityByID(ctx, universityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"university_id": universityID, "foyer_id": f.ID, "blocs": len(f.Blocs)}).
		Info("foyer created and assigned")
	return out, nil
}
