package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/store"
)

type StudentService struct {
	Store store.Store
	Log   *logrus.Logger
}

func NewStudentService(st store.Store, log *logrus.Logger) *StudentService {
	return &StudentService{Store: st, Log: log}
}

func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	return s.Store.ListStudents(ctx)
}

func (s *StudentService) Get(ctx context.Context, id uint) (*models.Student, error) {
	st, err := s.Store.StudentByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "student", id)
	}
	return st, nil
}

func (s *StudentService) ByCIN(ctx context.Context, cin int64) (*models.Student, error) {
	st, err := s.Store.StudentByCIN(ctx, cin)
	if err != nil {
		return nil, lookupErr(err, "student", cin)
	}
	return st, nil
}

func normaliseStudent(st *models.Student) {
	st.FirstName = strings.TrimSpace(st.FirstName)
	st.LastName = strings.TrimSpace(st.LastName)
	st.School = strings.TrimSpace(st.School)
}

func (s *StudentService) Create(ctx context.Context, st *models.Student) error {
	st.ID = 0
	normaliseStudent(st)
	if err := validateInput(st); err != nil {
		return err
	}
	if err := s.Store.SaveStudent(ctx, st); err != nil {
		return fmt.Errorf("create student %d: %w", st.CIN, err)
	}
	s.Log.WithFields(logrus.Fields{"student_id": st.ID, "cin": st.CIN}).Info("student created")
	return nil
}

// CreateBatch inserts all students or none of them.
func (s *StudentService) CreateBatch(ctx context.Context, students []models.Student) ([]models.Student, error) {
	if len(students) == 0 {
		return nil, validationError("students must not be empty")
	}
	for i := range students {
		students[i].ID = 0
		normaliseStudent(&students[i])
		if err := validateInput(&students[i]); err != nil {
			return nil, fmt.Errorf("student #%d: %w", i+1, err)
		}
	}

	err := s.Store.WithinTransaction(ctx, func(tx store.Store) error {
		for i := range students {
			if err := tx.SaveStudent(ctx, &students[i]); err != nil {
				return fmt.Errorf("create student %d: %w", students[i].CIN, err)
			}
		}
		return nil
	})
	if err != nil {
		for i := range students {
			students[i].ID = 0
		}
		return nil, err
	}
	s.Log.WithField("count", len(students)).Info("students created")
	return students, nil
}

func (s *StudentService) Update(ctx context.Context, id uint, in models.Student) (*models.Student, error) {
	st, err := s.Store.StudentByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "student", id)
	}
	st.FirstName = in.FirstName
	st.LastName = in.LastName
	st.CIN = in.CIN
	st.School = in.School
	st.BirthDate = in.BirthDate
	normaliseStudent(st)
	if err := validateInput(st); err != nil {
		return nil, err
	}
	if err := s.Store.SaveStudent(ctx, st); err != nil {
		return nil, fmt.Errorf("update student %d: %w", id, err)
	}
	return st, nil
}

// Delete refuses students still attached to a reservation (store.ErrForeignKey).
func (s *StudentService) Delete(ctx context.Context, id uint) error {
	if err := s.Store.DeleteStudent(ctx, id); err != nil {
		return lookupErr(err, "student", id)
	}
	s.Log.WithField("student_id", id).Info("student deleted")
	return nil
}
