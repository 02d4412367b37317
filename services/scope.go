package services

import (
	"errors"
	"strings"

	"clinicore-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentFilters carries the optional list-query filters. A zero value
// means "no filter".
type AppointmentFilters struct {
	Search     string
	Status     models.AppointmentStatus
	AssigneeID *uuid.UUID
	ClientID   *uuid.UUID
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD

	// Master-only explicit tenant selection
	SelectedCompanyID *uuid.UUID
}

// IsAvailabilityProbe recognizes the one query shape where a client-role
// requester may see the whole tenant's bookings: a same-day date range with
// no other filter, used to find occupied slots before booking.
//
// This deliberately discloses other clients' bookings for that day to any
// authenticated client. Trigger condition preserved as-is pending product
// review; do not tighten it here without confirming intended behavior.
func (f AppointmentFilters) IsAvailabilityProbe() bool {
	return f.StartDate != "" &&
		f.StartDate == f.EndDate &&
		f.Search == "" &&
		f.Status == "" &&
		f.AssigneeID == nil &&
		f.ClientID == nil
}

// TenantScope resolves the effective company/client visibility for a
// request. All appointment reads and writes go through it.
type TenantScope struct {
	db *gorm.DB
}

func NewTenantScope(db *gorm.DB) *TenantScope {
	return &TenantScope{db: db}
}

// ResolveCompany returns the tenant a write must target, or the tenant a
// read is narrowed to. nil means "all tenants" and is only reachable for
// master requesters with no explicit selection.
func (s *TenantScope) ResolveCompany(r models.Requester, selected *uuid.UUID) (*uuid.UUID, error) {
	if r.IsMaster {
		return selected, nil
	}
	if selected != nil && (r.CompanyID == nil || *selected != *r.CompanyID) {
		return nil, authorizationError("company selection requires master access")
	}
	if r.CompanyID == nil {
		return nil, authorizationError("requester has no company assignment")
	}
	return r.CompanyID, nil
}

// OwnClient finds the client record backing a client-role requester within
// the given tenant. Returns nil without error when none exists; callers
// must then match nothing rather than erroring, to avoid leaking the
// identity mismatch.
func (s *TenantScope) OwnClient(r models.Requester, companyID *uuid.UUID) (*models.Client, error) {
	q := s.db.Where("user_id = ?", r.UserID)
	if companyID != nil {
		q = q.Where("company_id = ?", *companyID)
	}
	var client models.Client
	if err := q.First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, internalError("failed to resolve client record")
	}
	return &client, nil
}

// AppointmentQuery builds the scoped, filtered appointment query for the
// requester.
func (s *TenantScope) AppointmentQuery(r models.Requester, f AppointmentFilters) (*gorm.DB, error) {
	companyID, err := s.ResolveCompany(r, f.SelectedCompanyID)
	if err != nil {
		return nil, err
	}

	q := s.db.Model(&models.Appointment{})
	if companyID != nil {
		q = q.Where("appointments.company_id = ?", *companyID)
	}

	if r.Role.IsClient() && !f.IsAvailabilityProbe() {
		own, err := s.OwnClient(r, companyID)
		if err != nil {
			return nil, err
		}
		if own == nil {
			// No backing client record: match nothing, never error
			q = q.Where("1 = 0")
		} else {
			q = q.Where("appointments.client_id = ?", own.ID)
		}
	}

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where(
			"LOWER(appointments.notes) LIKE ? OR appointments.client_id IN (SELECT id FROM clients WHERE LOWER(name) LIKE ? AND deleted_at IS NULL)",
			pattern, pattern,
		)
	}
	if f.Status != "" {
		q = q.Where("appointments.status = ?", f.Status)
	}
	if f.AssigneeID != nil {
		q = q.Where("appointments.assignee_id = ?", *f.AssigneeID)
	}
	if f.ClientID != nil {
		q = q.Where("appointments.client_id = ?", *f.ClientID)
	}
	if f.StartDate != "" {
		q = q.Where("appointments.date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("appointments.date <= ?", f.EndDate)
	}

	return q, nil
}
