package store

import (
	"context"
	"time"

	"foyer-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore wraps *gorm.DB. Inside WithinTransaction the same type is bound
// to the transaction handle.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

func (s *GormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
	return translate(err)
}

// ----------------------------------------------------
// Universities
// ----------------------------------------------------

func (s *GormStore) ListUniversities(ctx context.Context) ([]models.University, error) {
	var list []models.University
	if err := s.db(ctx).Preload("Foyer").Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) UniversityByID(ctx context.Context, id uint) (*models.University, error) {
	var u models.University
	if err := s.db(ctx).Preload("Foyer").First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UniversityByName(ctx context.Context, name string) (*models.University, error) {
	var u models.University
	if err := s.db(ctx).Preload("Foyer").Where("name = ?", name).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UniversityByFoyer(ctx context.Context, foyerID uint) (*models.University, error) {
	var u models.University
	if err := s.db(ctx).Where("foyer_id = ?", foyerID).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) SaveUniversity(ctx context.Context, u *models.University) error {
	return translate(s.db(ctx).Omit(clause.Associations).Save(u).Error)
}

func (s *GormStore) DeleteUniversity(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.University{}, id)
}

// ----------------------------------------------------
// Foyers
// ----------------------------------------------------

func (s *GormStore) ListFoyers(ctx context.Context) ([]models.Foyer, error) {
	var list []models.Foyer
	if err := s.db(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) FoyerByID(ctx context.Context, id uint) (*models.Foyer, error) {
	var f models.Foyer
	if err := s.db(ctx).First(&f, id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (s *GormStore) SaveFoyer(ctx context.Context, f *models.Foyer) error {
	if f.ID == 0 {
		// Create also inserts f.Blocs with foyer_id filled in.
		return translate(s.db(ctx).Create(f).Error)
	}
	return translate(s.db(ctx).Omit(clause.Associations).Save(f).Error)
}

func (s *GormStore) DeleteFoyer(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.Foyer{}, id)
}

// ----------------------------------------------------
// Blocs
// ----------------------------------------------------

func (s *GormStore) ListBlocs(ctx context.Context) ([]models.Bloc, error) {
	var list []models.Bloc
	if err := s.db(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) BlocByID(ctx context.Context, id uint) (*models.Bloc, error) {
	var b models.Bloc
	if err := s.db(ctx).First(&b, id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *GormStore) BlocsByFoyer(ctx context.Context, foyerID uint) ([]models.Bloc, error) {
	var list []models.Bloc
	if err := s.db(ctx).Where("foyer_id = ?", foyerID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) SaveBloc(ctx context.Context, b *models.Bloc) error {
	return translate(s.db(ctx).Save(b).Error)
}

func (s *GormStore) DeleteBloc(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.Bloc{}, id)
}

// ----------------------------------------------------
// Rooms
// ----------------------------------------------------

func (s *GormStore) rooms(ctx context.Context) *gorm.DB {
	return s.db(ctx).Preload("Bloc")
}

func (s *GormStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	var list []models.Room
	if err := s.rooms(ctx).Order("number ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) RoomByID(ctx context.Context, id uint) (*models.Room, error) {
	var r models.Room
	if err := s.rooms(ctx).First(&r, id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) LockRoom(ctx context.Context, id uint) (*models.Room, error) {
	var r models.Room
	if err := s.rooms(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&r, id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) RoomsByNumbers(ctx context.Context, numbers []int64) ([]models.Room, error) {
	var list []models.Room
	if len(numbers) == 0 {
		return list, nil
	}
	if err := s.rooms(ctx).Where("number IN ?", numbers).Order("number ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) RoomsByBlocAndType(ctx context.Context, blocID uint, roomType models.RoomType) ([]models.Room, error) {
	var list []models.Room
	if err := s.rooms(ctx).
		Where("bloc_id = ? AND type = ?", blocID, roomType).
		Order("number ASC").
		Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) RoomsByUniversity(ctx context.Context, universityName string, roomType *models.RoomType) ([]models.Room, error) {
	q := s.rooms(ctx).
		Joins("JOIN blocs ON blocs.id = rooms.bloc_id").
		Joins("JOIN foyers ON foyers.id = blocs.foyer_id").
		Joins("JOIN universities ON universities.foyer_id = foyers.id").
		Where("universities.name = ?", universityName)
	if roomType != nil {
		q = q.Where("rooms.type = ?", *roomType)
	}

	var list []models.Room
	if err := q.Order("rooms.number ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) SaveRoom(ctx context.Context, r *models.Room) error {
	return translate(s.db(ctx).Omit(clause.Associations).Save(r).Error)
}

func (s *GormStore) DeleteRoom(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.Room{}, id)
}

// ----------------------------------------------------
// Students
// ----------------------------------------------------

func (s *GormStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	var list []models.Student
	if err := s.db(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) StudentByID(ctx context.Context, id uint) (*models.Student, error) {
	var st models.Student
	if err := s.db(ctx).First(&st, id).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *GormStore) StudentByCIN(ctx context.Context, cin int64) (*models.Student, error) {
	var st models.Student
	if err := s.db(ctx).Where("cin = ?", cin).First(&st).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *GormStore) LockStudent(ctx context.Context, id uint) (*models.Student, error) {
	var st models.Student
	if err := s.db(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&st, id).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *GormStore) SaveStudent(ctx context.Context, st *models.Student) error {
	return translate(s.db(ctx).Save(st).Error)
}

func (s *GormStore) DeleteStudent(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.Student{}, id)
}

// ----------------------------------------------------
// Reservations
// ----------------------------------------------------

func (s *GormStore) reservations(ctx context.Context) *gorm.DB {
	return s.db(ctx).
		Preload("Students", func(db *gorm.DB) *gorm.DB {
			return db.Order("students.id ASC")
		}).
		Preload("Room.Bloc")
}

func (s *GormStore) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.reservations(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) ReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.reservations(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) ReservationExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := s.db(ctx).Model(&models.Reservation{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (s *GormStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	students := r.Students

	exists, err := s.ReservationExists(ctx, r.ID)
	if err != nil {
		return err
	}

	if exists {
		// map form so a nil room_id is written as NULL
		if err := s.db(ctx).Model(&models.Reservation{}).
			Where("id = ?", r.ID).
			Updates(map[string]interface{}{
				"academic_year": r.AcademicYear,
				"valid":         r.Valid,
				"room_id":       r.RoomID,
			}).Error; err != nil {
			return translate(err)
		}
	} else {
		if err := s.db(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
			return translate(err)
		}
	}

	assoc := s.db(ctx).Model(&models.Reservation{ID: r.ID}).Association("Students")
	if len(students) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(students)
	}
	if err != nil {
		return translate(err)
	}

	r.Students = students
	return nil
}

func (s *GormStore) CountValidReservationsByRoom(ctx context.Context, roomID uint) (int64, error) {
	var n int64
	if err := s.db(ctx).Model(&models.Reservation{}).
		Where("room_id = ? AND valid = ?", roomID, true).
		Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (s *GormStore) ValidReservationsByStudent(ctx context.Context, studentID uint) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.reservations(ctx).
		Joins("JOIN reservation_students ON reservation_students.reservation_id = reservations.id").
		Where("reservation_students.student_id = ? AND reservations.valid = ?", studentID, true).
		Order("reservations.academic_year ASC, reservations.id ASC").
		Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) ValidReservationsByRoomInWindow(ctx context.Context, roomID uint, from, to time.Time) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.reservations(ctx).
		Where("room_id = ? AND valid = ? AND academic_year BETWEEN ? AND ?",
			roomID, true, datatypes.Date(from), datatypes.Date(to)).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) ReservationsByUniversityInWindow(ctx context.Context, universityName string, from, to time.Time) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.reservations(ctx).
		Joins("JOIN rooms ON rooms.id = reservations.room_id").
		Joins("JOIN blocs ON blocs.id = rooms.bloc_id").
		Joins("JOIN foyers ON foyers.id = blocs.foyer_id").
		Joins("JOIN universities ON universities.foyer_id = foyers.id").
		Where("universities.name = ? AND reservations.academic_year BETWEEN ? AND ?",
			universityName, datatypes.Date(from), datatypes.Date(to)).
		Order("reservations.academic_year ASC, reservations.id ASC").
		Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

// ----------------------------------------------------
// helpers
// ----------------------------------------------------

func (s *GormStore) deleteByID(ctx context.Context, model interface{}, id uint) error {
	res := s.db(ctx).Delete(model, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
