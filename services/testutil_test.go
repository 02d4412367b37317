package services

import (
	"sync"
	"testing"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var loggerOnce sync.Once

// openTestDB gives each test an isolated in-memory database with the full
// schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loggerOnce.Do(config.InitLogger)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second pooled connection would see an empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Client{},
		&models.Employee{},
		&models.Treatment{},
		&models.Appointment{},
		&models.AppointmentTreatment{},
		&models.Invoice{},
		&models.Payment{},
		&models.MedicalRecord{},
	))
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, IsActive: true}
	require.NoError(t, db.Create(company).Error)
	return company
}

func seedUser(t *testing.T, db *gorm.DB, companyID *uuid.UUID, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     uuid.NewString() + "@clinic.test",
		Password:  "changeme123",
		Name:      "Test " + role,
		RoleName:  role,
		CompanyID: companyID,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedClient(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string, userID *uuid.UUID) *models.Client {
	t.Helper()
	client := &models.Client{
		CompanyID:       companyID,
		CreatedByUserID: uuid.New(),
		UserID:          userID,
		Name:            name,
		Phone:           "9" + utils.GenerateRandomString(9),
		IsActive:        true,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func seedTreatment(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string, price float64) *models.Treatment {
	t.Helper()
	treatment := &models.Treatment{
		CompanyID: companyID,
		Name:      name,
		Price:     price,
		Duration:  30,
		IsActive:  true,
	}
	require.NoError(t, db.Create(treatment).Error)
	return treatment
}

func staffRequester(user *models.User) models.Requester {
	return models.Requester{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      models.NormalizeRole(user.RoleName),
	}
}

func clientRequester(user *models.User) models.Requester {
	return models.Requester{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      models.NormalizeRole(models.RoleClient),
	}
}

func masterRequester(user *models.User) models.Requester {
	return models.Requester{
		UserID:   user.ID,
		Role:     models.NormalizeRole(models.RoleMaster),
		IsMaster: true,
	}
}

// futureDate returns a date n days from now, so bookings pass the
// no-past-slots rule regardless of when the tests run.
func futureDate(t *testing.T, n int) string {
	t.Helper()
	d, err := utils.AddDays(utils.Today(), n)
	require.NoError(t, err)
	return d
}
