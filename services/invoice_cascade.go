package services

import (
	"errors"
	"strings"
	"time"

	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceCascade materializes the billing invoice derived from an
// appointment. Creation is idempotent: at most one invoice ever exists per
// appointment, enforced both by lookup and by the unique index on
// appointment_id.
type InvoiceCascade struct {
	db *gorm.DB
}

func NewInvoiceCascade(db *gorm.DB) *InvoiceCascade {
	return &InvoiceCascade{db: db}
}

// EnsureInvoice returns the existing invoice id for the appointment, or
// creates one from the priced treatment lines: amount = subtotal, status
// PENDING, due date = appointment date + 30 days.
func (ic *InvoiceCascade) EnsureInvoice(appointmentID uuid.UUID) (uuid.UUID, error) {
	var existing models.Invoice
	err := ic.db.Where("appointment_id = ?", appointmentID).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	var appt models.Appointment
	if err := ic.db.Preload("Treatments").Preload("Client").
		First(&appt, "id = ?", appointmentID).Error; err != nil {
		return uuid.Nil, err
	}

	var subtotal float64
	var names []string
	for _, line := range appt.Treatments {
		subtotal += line.TotalPrice
		names = append(names, line.TreatmentName)
	}

	dueDate, err := utils.AddDays(appt.Date, 30)
	if err != nil {
		return uuid.Nil, err
	}

	invoice := models.Invoice{
		CompanyID:     appt.CompanyID,
		AppointmentID: appt.ID,
		ClientID:      appt.ClientID,
		InvoiceNumber: "INV-" + time.Now().Format("20060102") + "-" + utils.GenerateRandomString(6),
		Description:   strings.Join(names, ", ") + " for " + appt.Client.Name,
		Subtotal:      subtotal,
		Amount:        subtotal,
		Status:        models.InvoicePending,
		DueDate:       dueDate,
	}

	if err := ic.db.Create(&invoice).Error; err != nil {
		// A concurrent transition may have created it first; the unique
		// index rejects the duplicate, so re-read and return that one.
		var raced models.Invoice
		if err2 := ic.db.Where("appointment_id = ?", appointmentID).First(&raced).Error; err2 == nil {
			return raced.ID, nil
		}
		return uuid.Nil, err
	}
	return invoice.ID, nil
}

// Resync re-derives the invoice from the appointment after its treatment
// lines changed. Runs inside the caller's transaction so the invariant
// amount = subtotal - discount holds atomically with the line rewrite.
// No invoice yet is not an error.
func (ic *InvoiceCascade) Resync(tx *gorm.DB, appt *models.Appointment) error {
	var invoice models.Invoice
	if err := tx.Where("appointment_id = ?", appt.ID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	invoice.Subtotal = appt.TotalAmount
	invoice.Recalculate()
	return tx.Save(&invoice).Error
}

// ApplyDiscount stores the discount and recomputes the amount against the
// current subtotal.
func (ic *InvoiceCascade) ApplyDiscount(companyID, invoiceID uuid.UUID, discountType models.DiscountType, value float64) (*models.Invoice, error) {
	switch discountType {
	case models.DiscountPercentage:
		if value < 0 || value > 100 {
			return nil, validationError("percentage discount must be between 0 and 100")
		}
	case models.DiscountFixed:
		if value < 0 {
			return nil, validationError("fixed discount cannot be negative")
		}
	default:
		return nil, validationError("invalid discount type: %s", discountType)
	}

	var invoice models.Invoice
	if err := ic.db.Where("company_id = ? AND id = ?", companyID, invoiceID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("invoice not found")
		}
		return nil, internalError("failed to load invoice")
	}

	invoice.DiscountType = &discountType
	invoice.DiscountValue = &value
	invoice.Recalculate()

	if err := ic.db.Save(&invoice).Error; err != nil {
		return nil, internalError("failed to update invoice")
	}
	return &invoice, nil
}
