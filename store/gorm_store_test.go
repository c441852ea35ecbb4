package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foyer-backend/models"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormStore(db), mock
}

func TestGormStore_UniversityByIDNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `universities`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := st.UniversityByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_StudentByCIN(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `students` WHERE cin = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "cin"}).
			AddRow(7, "Amira", "Ben Salah", 12345678))

	s, err := st.StudentByCIN(context.Background(), 12345678)
	require.NoError(t, err)
	assert.Equal(t, uint(7), s.ID)
	assert.Equal(t, "Amira", s.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CountValidReservationsDeadlock(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `reservations`")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})

	_, err := st.CountValidReservationsByRoom(context.Background(), 3)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CountValidReservations(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `reservations` WHERE room_id = ? AND valid = ?")).
		WithArgs(3, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := st.CountValidReservationsByRoom(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteRoomMissing(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `rooms`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.DeleteRoom(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveRoomDuplicateNumber(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `rooms`")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '101' for key 'idx_rooms_number'"})

	err := st.SaveRoom(context.Background(), &models.Room{Number: 101, Type: models.RoomTypeSimple})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_TransactionRollsBackOnError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `reservations`")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	mock.ExpectRollback()

	err := st.WithinTransaction(context.Background(), func(tx Store) error {
		_, err := tx.CountValidReservationsByRoom(context.Background(), 1)
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_LockStudentForUpdate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `students` WHERE `students`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "cin"}).
			AddRow(7, "Amira", "Ben Salah", 12345678))
	mock.ExpectCommit()

	err := st.WithinTransaction(context.Background(), func(tx Store) error {
		s, err := tx.LockStudent(context.Background(), 7)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(12345678), s.CIN)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
