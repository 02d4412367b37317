package services

import (
	"errors"
	"time"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SideEffect reports the outcome of one best-effort cascade attached to a
// state transition. A failed cascade never fails the transition itself.
type SideEffect struct {
	Kind   string     `json:"kind"` // "invoice" or "medical_record"
	OK     bool       `json:"ok"`
	ID     *uuid.UUID `json:"id,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

type AppointmentResult struct {
	Appointment *models.Appointment `json:"appointment"`
	SideEffects []SideEffect        `json:"sideEffects,omitempty"`
}

type TreatmentLineInput struct {
	TreatmentID uuid.UUID `json:"treatmentId" binding:"required"`
	Quantity    int       `json:"quantity"`
}

type CreateAppointmentInput struct {
	ClientID   uuid.UUID
	AssigneeID *uuid.UUID
	Date       string // YYYY-MM-DD
	StartTime  string // HH:MM
	EndTime    string // HH:MM
	Notes      string
	Treatments []TreatmentLineInput

	// Master-only explicit tenant selection
	CompanyID *uuid.UUID
}

type UpdateAppointmentInput struct {
	ClientID   *uuid.UUID
	AssigneeID *uuid.UUID
	Date       *string
	StartTime  *string
	EndTime    *string
	Notes      *string
	Treatments *[]TreatmentLineInput
}

// AppointmentService orchestrates the appointment lifecycle: tenant
// scoping, conflict detection, the status state machine and the derived
// invoice/medical-record cascades.
type AppointmentService struct {
	db       *gorm.DB
	scope    *TenantScope
	detector *ConflictDetector
	invoices *InvoiceCascade
	records  *MedicalRecordCascade
}

func NewAppointmentService(db *gorm.DB) *AppointmentService {
	return &AppointmentService{
		db:       db,
		scope:    NewTenantScope(db),
		detector: &ConflictDetector{},
		invoices: NewInvoiceCascade(db),
		records:  NewMedicalRecordCascade(db),
	}
}

func (s *AppointmentService) Scope() *TenantScope       { return s.scope }
func (s *AppointmentService) Invoices() *InvoiceCascade { return s.invoices }

// --- helpers ---

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	// sqlite (tests) has no FOR UPDATE; its single writer serializes anyway
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func validateSlot(date, start, end string, requireFuture bool) error {
	day, err := utils.ParseDate(date)
	if err != nil {
		return validationError("invalid date, expected YYYY-MM-DD")
	}
	startClock, err := utils.ParseClock(start)
	if err != nil {
		return validationError("invalid start time, expected HH:MM")
	}
	if _, err := utils.ParseClock(end); err != nil {
		return validationError("invalid end time, expected HH:MM")
	}
	if end <= start {
		return validationError("end time must be after start time")
	}
	if requireFuture {
		startsAt := time.Date(day.Year(), day.Month(), day.Day(),
			startClock.Hour(), startClock.Minute(), 0, 0, time.Local)
		if startsAt.Before(time.Now()) {
			return validationError("appointment cannot be scheduled in the past")
		}
	}
	return nil
}

func appendNote(appt *models.Appointment, entry string) {
	stamped := "[" + time.Now().Format("2006-01-02 15:04") + "] " + entry
	if appt.Notes == "" {
		appt.Notes = stamped
	} else {
		appt.Notes += "\n" + stamped
	}
}

func (s *AppointmentService) resolveClient(tx *gorm.DB, companyID, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := tx.Where("company_id = ? AND id = ?", companyID, clientID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("client not found")
		}
		return nil, err
	}
	return &client, nil
}

// resolveAssignee checks that the assignee user exists in the tenant and is
// an employee or an admin acting as provider.
func (s *AppointmentService) resolveAssignee(tx *gorm.DB, companyID, userID uuid.UUID) error {
	var assignee models.User
	err := tx.Where("company_id = ? AND id = ? AND role_name IN ? AND is_active = ?",
		companyID, userID, []string{models.RoleAdmin, models.RoleEmployee}, true).
		First(&assignee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("assignee not found")
		}
		return err
	}
	return nil
}

// buildLines validates the treatment references and snapshots catalog
// prices into booking lines.
func (s *AppointmentService) buildLines(tx *gorm.DB, companyID uuid.UUID, inputs []TreatmentLineInput) ([]models.AppointmentTreatment, float64, error) {
	var lines []models.AppointmentTreatment
	var subtotal float64

	for _, in := range inputs {
		qty := in.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, 0, validationError("treatment quantity cannot be negative")
		}

		var treatment models.Treatment
		if err := tx.Where("company_id = ? AND id = ?", companyID, in.TreatmentID).
			First(&treatment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, notFoundError("treatment not found: %s", in.TreatmentID)
			}
			return nil, 0, err
		}
		if !treatment.IsActive {
			return nil, 0, validationError("treatment is not active: %s", treatment.Name)
		}

		lineTotal := treatment.Price * float64(qty)
		subtotal += lineTotal
		lines = append(lines, models.AppointmentTreatment{
			TreatmentID:   treatment.ID,
			TreatmentName: treatment.Name,
			Quantity:      qty,
			UnitPrice:     treatment.Price,
			TotalPrice:    lineTotal,
		})
	}
	return lines, subtotal, nil
}

// loadForWrite fetches the appointment for mutation, row-locked, within
// the requester's tenant. Client-role requesters only reach appointments
// owned by their own client record; anything else reads as not found.
func (s *AppointmentService) loadForWrite(tx *gorm.DB, r models.Requester, id uuid.UUID) (*models.Appointment, error) {
	q := lockForUpdate(tx)
	if !r.IsMaster {
		if r.CompanyID == nil {
			return nil, authorizationError("requester has no company assignment")
		}
		q = q.Where("company_id = ?", *r.CompanyID)
	}

	var appt models.Appointment
	if err := q.Where("id = ?", id).First(&appt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("appointment not found")
		}
		return nil, err
	}

	if r.Role.IsClient() {
		own, err := s.scope.OwnClient(r, &appt.CompanyID)
		if err != nil {
			return nil, err
		}
		if own == nil || own.ID != appt.ClientID {
			return nil, notFoundError("appointment not found")
		}
	}
	return &appt, nil
}

func (s *AppointmentService) hasPayments(tx *gorm.DB, appointmentID uuid.UUID, paidOnly bool) (bool, error) {
	q := tx.Model(&models.Payment{}).Where("appointment_id = ?", appointmentID)
	if paidOnly {
		q = q.Where("status = ?", models.PaymentPaid)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *AppointmentService) invoiceEffect(appointmentID uuid.UUID) SideEffect {
	id, err := s.invoices.EnsureInvoice(appointmentID)
	if err != nil {
		config.Log.Error("invoice cascade failed",
			zap.String("appointmentId", appointmentID.String()),
			zap.Error(err))
		return SideEffect{Kind: "invoice", OK: false, Reason: err.Error()}
	}
	return SideEffect{Kind: "invoice", OK: true, ID: &id}
}

func (s *AppointmentService) recordEffect(appointmentID, createdBy uuid.UUID) SideEffect {
	id, err := s.records.EnsureMedicalRecord(appointmentID, createdBy)
	if err != nil {
		config.Log.Error("medical record cascade failed",
			zap.String("appointmentId", appointmentID.String()),
			zap.Error(err))
		return SideEffect{Kind: "medical_record", OK: false, Reason: err.Error()}
	}
	return SideEffect{Kind: "medical_record", OK: true, ID: &id}
}

// --- operations ---

// Create books a new appointment in SCHEDULED state.
func (s *AppointmentService) Create(r models.Requester, input CreateAppointmentInput) (*AppointmentResult, error) {
	companyID, err := s.scope.ResolveCompany(r, input.CompanyID)
	if err != nil {
		return nil, err
	}
	if companyID == nil {
		return nil, validationError("company is required")
	}

	if r.Role.IsClient() {
		// Clients always book for themselves
		own, err := s.scope.OwnClient(r, companyID)
		if err != nil {
			return nil, err
		}
		if own == nil {
			return nil, authorizationError("no client record for requester")
		}
		input.ClientID = own.ID
	}

	if input.ClientID == uuid.Nil {
		return nil, validationError("client is required")
	}
	if len(input.Treatments) == 0 {
		return nil, validationError("at least one treatment is required")
	}
	if err := validateSlot(input.Date, input.StartTime, input.EndTime, true); err != nil {
		return nil, err
	}

	var appt models.Appointment
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.resolveClient(tx, *companyID, input.ClientID); err != nil {
			return err
		}

		if input.AssigneeID != nil {
			if err := s.resolveAssignee(tx, *companyID, *input.AssigneeID); err != nil {
				return err
			}
			conflict, err := s.detector.HasConflict(tx, *input.AssigneeID,
				input.Date, input.StartTime, input.EndTime, nil)
			if err != nil {
				return err
			}
			if conflict {
				return conflictError("assignee already has an appointment in this time slot")
			}
		}

		lines, subtotal, err := s.buildLines(tx, *companyID, input.Treatments)
		if err != nil {
			return err
		}

		appt = models.Appointment{
			CompanyID:       *companyID,
			ClientID:        input.ClientID,
			CreatedByUserID: r.UserID,
			AssigneeID:      input.AssigneeID,
			Date:            input.Date,
			StartTime:       input.StartTime,
			EndTime:         input.EndTime,
			Status:          models.StatusScheduled,
			Notes:           input.Notes,
			TotalAmount:     subtotal,
			Treatments:      lines,
		}
		return tx.Create(&appt).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	config.Log.Info("appointment created",
		zap.String("appointmentId", appt.ID.String()),
		zap.String("companyId", appt.CompanyID.String()))
	return &AppointmentResult{Appointment: &appt}, nil
}

// Get loads one appointment within the requester's visibility.
func (s *AppointmentService) Get(r models.Requester, id uuid.UUID, selectedCompany *uuid.UUID) (*models.Appointment, error) {
	q, err := s.scope.AppointmentQuery(r, AppointmentFilters{SelectedCompanyID: selectedCompany})
	if err != nil {
		return nil, err
	}

	var appt models.Appointment
	if err := q.Preload("Treatments").Preload("Client").
		Where("appointments.id = ?", id).First(&appt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("appointment not found")
		}
		return nil, err
	}
	return &appt, nil
}

// List returns the scoped, filtered appointments ordered by slot.
func (s *AppointmentService) List(r models.Requester, f AppointmentFilters) ([]models.Appointment, error) {
	q, err := s.scope.AppointmentQuery(r, f)
	if err != nil {
		return nil, err
	}

	var appts []models.Appointment
	if err := q.Preload("Treatments").Preload("Client").
		Order("date, start_time").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

// Update edits fields and/or replaces the treatment line set. Rejected on
// terminal states. Slot or assignee changes re-run conflict detection
// excluding the appointment itself; a line replacement recomputes the total
// and re-synchronizes an existing invoice in the same transaction.
func (s *AppointmentService) Update(r models.Requester, id uuid.UUID, input UpdateAppointmentInput) (*AppointmentResult, error) {
	var appt *models.Appointment
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		appt, err = s.loadForWrite(tx, r, id)
		if err != nil {
			return err
		}
		if appt.Status.Terminal() {
			return conflictError("cannot edit a %s appointment", appt.Status)
		}

		if input.ClientID != nil && *input.ClientID != appt.ClientID {
			if r.Role.IsClient() {
				return authorizationError("clients cannot reassign appointments")
			}
			if _, err := s.resolveClient(tx, appt.CompanyID, *input.ClientID); err != nil {
				return err
			}
			appt.ClientID = *input.ClientID
		}

		slotChanged := false
		if input.Date != nil && *input.Date != appt.Date {
			appt.Date = *input.Date
			slotChanged = true
		}
		if input.StartTime != nil && *input.StartTime != appt.StartTime {
			appt.StartTime = *input.StartTime
			slotChanged = true
		}
		if input.EndTime != nil && *input.EndTime != appt.EndTime {
			appt.EndTime = *input.EndTime
			slotChanged = true
		}
		if input.AssigneeID != nil {
			if appt.AssigneeID == nil || *input.AssigneeID != *appt.AssigneeID {
				if err := s.resolveAssignee(tx, appt.CompanyID, *input.AssigneeID); err != nil {
					return err
				}
				appt.AssigneeID = input.AssigneeID
				slotChanged = true
			}
		}

		if slotChanged {
			if err := validateSlot(appt.Date, appt.StartTime, appt.EndTime, false); err != nil {
				return err
			}
			if appt.AssigneeID != nil {
				conflict, err := s.detector.HasConflict(tx, *appt.AssigneeID,
					appt.Date, appt.StartTime, appt.EndTime, &appt.ID)
				if err != nil {
					return err
				}
				if conflict {
					return conflictError("assignee already has an appointment in this time slot")
				}
			}
		}

		if input.Notes != nil {
			appt.Notes = *input.Notes
		}

		if input.Treatments != nil {
			if len(*input.Treatments) == 0 {
				return validationError("at least one treatment is required")
			}
			if err := tx.Where("appointment_id = ?", appt.ID).
				Delete(&models.AppointmentTreatment{}).Error; err != nil {
				return err
			}
			lines, subtotal, err := s.buildLines(tx, appt.CompanyID, *input.Treatments)
			if err != nil {
				return err
			}
			for i := range lines {
				lines[i].AppointmentID = appt.ID
			}
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
			appt.Treatments = lines
			appt.TotalAmount = subtotal

			if err := s.invoices.Resync(tx, appt); err != nil {
				return err
			}
		}

		return tx.Omit(clause.Associations).Save(appt).Error
	})
	if txErr != nil {
		return nil, txErr
	}
	return &AppointmentResult{Appointment: appt}, nil
}

// Confirm moves SCHEDULED or RESCHEDULED to CONFIRMED. Allowed for staff
// and for the client who owns the appointment. Triggers the invoice
// cascade.
func (s *AppointmentService) Confirm(r models.Requester, id uuid.UUID) (*AppointmentResult, error) {
	var appt *models.Appointment
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		appt, err = s.loadForWrite(tx, r, id)
		if err != nil {
			return err
		}

		switch appt.Status {
		case models.StatusConfirmed:
			return conflictError("appointment is already confirmed")
		case models.StatusCancelled:
			return conflictError("cancelled appointments cannot be confirmed")
		case models.StatusCompleted:
			return conflictError("completed appointments cannot be confirmed")
		case models.StatusScheduled, models.StatusRescheduled:
			// allowed
		default:
			return conflictError("cannot confirm an appointment in %s state", appt.Status)
		}

		appt.Status = models.StatusConfirmed
		appendNote(appt, "confirmed by "+r.UserID.String())
		return tx.Omit(clause.Associations).Save(appt).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	result := &AppointmentResult{Appointment: appt}
	result.SideEffects = append(result.SideEffects, s.invoiceEffect(appt.ID))
	return result, nil
}

// UpdateStatus is the staff-only generic transition. It accepts any
// enumerated target, including re-entering a state or leaving a terminal
// one; that looseness is the administrative override path. Cascades fire
// only when the prior state actually differed, so the override cannot
// duplicate derived entities.
func (s *AppointmentService) UpdateStatus(r models.Requester, id uuid.UUID, target models.AppointmentStatus) (*AppointmentResult, error) {
	if !r.Role.IsStaff() {
		return nil, authorizationError("status updates require staff access")
	}
	if !target.Valid() {
		return nil, validationError("invalid target status: %s", target)
	}

	var appt *models.Appointment
	var prior models.AppointmentStatus
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		appt, err = s.loadForWrite(tx, r, id)
		if err != nil {
			return err
		}
		prior = appt.Status
		appt.Status = target
		return tx.Omit(clause.Associations).Save(appt).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	result := &AppointmentResult{Appointment: appt}
	if (target == models.StatusConfirmed || target == models.StatusCompleted) && prior != target {
		result.SideEffects = append(result.SideEffects, s.invoiceEffect(appt.ID))
	}
	if target == models.StatusCompleted && prior != models.StatusCompleted {
		result.SideEffects = append(result.SideEffects, s.recordEffect(appt.ID, r.UserID))
	}
	return result, nil
}

// Cancel rejects terminal states and appointments with paid payments.
func (s *AppointmentService) Cancel(r models.Requester, id uuid.UUID, reason string) (*AppointmentResult, error) {
	var appt *models.Appointment
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		appt, err = s.loadForWrite(tx, r, id)
		if err != nil {
			return err
		}

		if appt.Status == models.StatusCancelled {
			return conflictError("appointment is already cancelled")
		}
		if appt.Status == models.StatusCompleted {
			return conflictError("completed appointments cannot be cancelled")
		}

		paid, err := s.hasPayments(tx, appt.ID, true)
		if err != nil {
			return err
		}
		if paid {
			return conflictError("appointment has paid payments and cannot be cancelled")
		}

		appt.Status = models.StatusCancelled
		entry := "cancelled by " + r.UserID.String()
		if reason != "" {
			entry += ": " + reason
		}
		appendNote(appt, entry)
		return tx.Omit(clause.Associations).Save(appt).Error
	})
	if txErr != nil {
		return nil, txErr
	}
	return &AppointmentResult{Appointment: appt}, nil
}

// Delete removes the treatment lines and then the appointment itself.
// Rejected when completed or when any payment row exists, paid or not.
func (s *AppointmentService) Delete(r models.Requester, id uuid.UUID) error {
	if !r.Role.IsStaff() {
		return authorizationError("deleting appointments requires staff access")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		appt, err := s.loadForWrite(tx, r, id)
		if err != nil {
			return err
		}

		if appt.Status == models.StatusCompleted {
			return conflictError("completed appointments cannot be deleted")
		}

		any, err := s.hasPayments(tx, appt.ID, false)
		if err != nil {
			return err
		}
		if any {
			return conflictError("appointment has payments and cannot be deleted")
		}

		if err := tx.Where("appointment_id = ?", appt.ID).
			Delete(&models.AppointmentTreatment{}).Error; err != nil {
			return err
		}
		return tx.Delete(appt).Error
	})
}
