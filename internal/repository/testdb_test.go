package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pharma-crm-server/internal/models"
)

// newTestDB opens a private in-memory SQLite database with foreign keys on
// and every table migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func insert(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	require.NoError(t, db.Omit(clause.Associations).Create(v).Error)
}

func addUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Password: "x"}
	insert(t, db, &u)
	return u
}

func addDoctor(t *testing.T, db *gorm.DB, name string, owner models.User) models.Doctor {
	t.Helper()
	d := models.Doctor{Name: name, OwnerID: &owner.ID}
	insert(t, db, &d)
	return d
}

func addAppointment(t *testing.T, db *gorm.DB, doctor models.Doctor, owner models.User, at time.Time, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	a := models.Appointment{DoctorID: doctor.ID, OwnerID: &owner.ID, ScheduledAt: at, Status: status}
	insert(t, db, &a)
	return a
}

func addRepresentative(t *testing.T, db *gorm.DB, user models.User) models.Representative {
	t.Helper()
	rep := models.Representative{UserID: user.ID}
	insert(t, db, &rep)
	return rep
}

func addAssignment(t *testing.T, db *gorm.DB, doctor models.Doctor, rep models.Representative, active bool) models.Assignment {
	t.Helper()
	territory := models.Territory{Name: "T-" + uuid.NewString()[:8]}
	insert(t, db, &territory)
	a := models.Assignment{
		DoctorID:         doctor.ID,
		RepresentativeID: rep.ID,
		TerritoryID:      territory.ID,
		Active:           active,
		MonthlyTarget:    1,
		StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	insert(t, db, &a)
	return a
}

func ids(doctors []models.Doctor) []string {
	out := make([]string, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, d.ID)
	}
	return out
}
