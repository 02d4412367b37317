package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePartial   InvoiceStatus = "PARTIAL"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Invoice is derived from an appointment by the invoice cascade; at most
// one exists per appointment.
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID     uuid.UUID `gorm:"type:uuid;index;not null"`
	AppointmentID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ClientID      uuid.UUID `gorm:"type:uuid;index;not null"`

	InvoiceNumber string `gorm:"uniqueIndex;not null"`
	Description   string `gorm:"type:text"`

	Subtotal      float64       `gorm:"type:decimal(10,2);not null"`
	DiscountType  *DiscountType `gorm:"type:varchar(20)"`
	DiscountValue *float64      `gorm:"type:decimal(10,2)"`
	Amount        float64       `gorm:"type:decimal(10,2);not null"`

	Status  InvoiceStatus `gorm:"type:varchar(20);default:'PENDING';index"`
	DueDate string        `gorm:"type:date;not null"` // appointment date + 30 days

	PaidAmount float64 `gorm:"type:decimal(10,2);default:0.0"`

	Payments []Payment `gorm:"foreignKey:InvoiceID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// DiscountAmount evaluates the stored discount against the current
// subtotal, not the subtotal at discount-application time.
func (i *Invoice) DiscountAmount() float64 {
	if i.DiscountType == nil || i.DiscountValue == nil {
		return 0
	}
	var d float64
	switch *i.DiscountType {
	case DiscountPercentage:
		d = i.Subtotal * *i.DiscountValue / 100
	case DiscountFixed:
		d = *i.DiscountValue
	}
	if d > i.Subtotal {
		d = i.Subtotal
	}
	return d
}

// Recalculate re-derives the final amount from the current subtotal and
// discount. Must be called after any subtotal or discount mutation.
func (i *Invoice) Recalculate() {
	i.Amount = i.Subtotal - i.DiscountAmount()
}
