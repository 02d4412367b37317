package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment is a ledger row. The appointment engine only reads existence and
// paid state as cancel/delete guards; no processing happens here.
type Payment struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID     uuid.UUID `gorm:"type:uuid;index;not null"`
	AppointmentID uuid.UUID `gorm:"type:uuid;index;not null"`
	InvoiceID     uuid.UUID `gorm:"type:uuid;index;not null"`

	Amount float64       `gorm:"type:decimal(10,2);not null"`
	Method string        `gorm:"type:varchar(20)"` // cash, card, transfer
	Status PaymentStatus `gorm:"type:varchar(20);default:'pending'"`
	PaidAt *time.Time

	CreatedAt time.Time
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
