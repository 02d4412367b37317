package services

import (
	"testing"

	"clinicore-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAvailabilityProbe(t *testing.T) {
	assignee := uuid.New()

	tests := []struct {
		name    string
		filters AppointmentFilters
		want    bool
	}{
		{"same-day range, nothing else", AppointmentFilters{StartDate: "2030-06-10", EndDate: "2030-06-10"}, true},
		{"no dates", AppointmentFilters{}, false},
		{"multi-day range", AppointmentFilters{StartDate: "2030-06-10", EndDate: "2030-06-11"}, false},
		{"start only", AppointmentFilters{StartDate: "2030-06-10"}, false},
		{"with search", AppointmentFilters{StartDate: "2030-06-10", EndDate: "2030-06-10", Search: "pat"}, false},
		{"with status", AppointmentFilters{StartDate: "2030-06-10", EndDate: "2030-06-10", Status: models.StatusScheduled}, false},
		{"with assignee", AppointmentFilters{StartDate: "2030-06-10", EndDate: "2030-06-10", AssigneeID: &assignee}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.IsAvailabilityProbe())
		})
	}
}

func TestResolveCompany(t *testing.T) {
	db := openTestDB(t)
	scope := NewTenantScope(db)

	companyA := uuid.New()
	companyB := uuid.New()
	master := models.Requester{UserID: uuid.New(), Role: models.NormalizeRole(models.RoleMaster), IsMaster: true}
	admin := models.Requester{UserID: uuid.New(), CompanyID: &companyA, Role: models.NormalizeRole(models.RoleAdmin)}

	t.Run("master with no selection sees all tenants", func(t *testing.T) {
		got, err := scope.ResolveCompany(master, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("master selects any tenant", func(t *testing.T) {
		got, err := scope.ResolveCompany(master, &companyB)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, companyB, *got)
	})

	t.Run("non-master is bound to own tenant", func(t *testing.T) {
		got, err := scope.ResolveCompany(admin, nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, companyA, *got)
	})

	t.Run("non-master selecting own tenant is allowed", func(t *testing.T) {
		got, err := scope.ResolveCompany(admin, &companyA)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, companyA, *got)
	})

	t.Run("non-master selecting another tenant is rejected", func(t *testing.T) {
		_, err := scope.ResolveCompany(admin, &companyB)
		require.Error(t, err)
		assert.Equal(t, KindAuthorization, KindOf(err))
	})

	t.Run("non-master with no tenant is rejected", func(t *testing.T) {
		orphan := models.Requester{UserID: uuid.New(), Role: models.NormalizeRole(models.RoleAdmin)}
		_, err := scope.ResolveCompany(orphan, nil)
		require.Error(t, err)
		assert.Equal(t, KindAuthorization, KindOf(err))
	})
}

func TestAppointmentQueryVisibility(t *testing.T) {
	db := openTestDB(t)
	scope := NewTenantScope(db)

	companyA := seedCompany(t, db, "Clinic A")
	companyB := seedCompany(t, db, "Clinic B")
	staff := seedUser(t, db, &companyA.ID, models.RoleAdmin)

	portalUser := seedUser(t, db, &companyA.ID, models.RoleClient)
	own := seedClient(t, db, companyA.ID, "Own Client", &portalUser.ID)
	other := seedClient(t, db, companyA.ID, "Other Client", nil)
	foreign := seedClient(t, db, companyB.ID, "Foreign Client", nil)

	book := func(companyID, clientID uuid.UUID, date string) {
		require.NoError(t, db.Create(&models.Appointment{
			CompanyID:       companyID,
			ClientID:        clientID,
			CreatedByUserID: staff.ID,
			Date:            date,
			StartTime:       "10:00",
			EndTime:         "11:00",
			Status:          models.StatusScheduled,
		}).Error)
	}
	book(companyA.ID, own.ID, "2030-06-10")
	book(companyA.ID, other.ID, "2030-06-10")
	book(companyA.ID, other.ID, "2030-06-11")
	book(companyB.ID, foreign.ID, "2030-06-10")

	count := func(r models.Requester, f AppointmentFilters) int64 {
		q, err := scope.AppointmentQuery(r, f)
		require.NoError(t, err)
		var n int64
		require.NoError(t, q.Count(&n).Error)
		return n
	}

	t.Run("staff sees the whole tenant", func(t *testing.T) {
		assert.EqualValues(t, 3, count(staffRequester(staff), AppointmentFilters{}))
	})

	t.Run("staff never sees another tenant", func(t *testing.T) {
		assert.EqualValues(t, 0, count(staffRequester(staff), AppointmentFilters{ClientID: &foreign.ID}))
	})

	t.Run("client sees only own appointments", func(t *testing.T) {
		assert.EqualValues(t, 1, count(clientRequester(portalUser), AppointmentFilters{}))
	})

	t.Run("availability probe shows the tenant's whole day", func(t *testing.T) {
		n := count(clientRequester(portalUser), AppointmentFilters{StartDate: "2030-06-10", EndDate: "2030-06-10"})
		assert.EqualValues(t, 2, n)
	})

	t.Run("client without a backing record sees nothing", func(t *testing.T) {
		stray := seedUser(t, db, &companyA.ID, models.RoleClient)
		assert.EqualValues(t, 0, count(clientRequester(stray), AppointmentFilters{}))
	})

	t.Run("date and status filters narrow the result", func(t *testing.T) {
		r := staffRequester(staff)
		assert.EqualValues(t, 2, count(r, AppointmentFilters{StartDate: "2030-06-10", EndDate: "2030-06-10"}))
		assert.EqualValues(t, 3, count(r, AppointmentFilters{Status: models.StatusScheduled}))
		assert.EqualValues(t, 0, count(r, AppointmentFilters{Status: models.StatusCompleted}))
	})

	t.Run("search matches client name", func(t *testing.T) {
		assert.EqualValues(t, 2, count(staffRequester(staff), AppointmentFilters{Search: "other"}))
	})

	t.Run("search skips soft-deleted clients", func(t *testing.T) {
		gone := seedClient(t, db, companyA.ID, "Vanishing Client", nil)
		book(companyA.ID, gone.ID, "2030-06-12")
		assert.EqualValues(t, 1, count(staffRequester(staff), AppointmentFilters{Search: "vanishing"}))

		require.NoError(t, db.Delete(gone).Error)
		assert.EqualValues(t, 0, count(staffRequester(staff), AppointmentFilters{Search: "vanishing"}))
	})

	t.Run("master with no selection sees every tenant", func(t *testing.T) {
		masterUser := seedUser(t, db, nil, models.RoleMaster)
		assert.EqualValues(t, 5, count(masterRequester(masterUser), AppointmentFilters{}))
	})
}
