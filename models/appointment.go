package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "SCHEDULED"
	StatusConfirmed   AppointmentStatus = "CONFIRMED"
	StatusInProgress  AppointmentStatus = "IN_PROGRESS"
	StatusCompleted   AppointmentStatus = "COMPLETED"
	StatusCancelled   AppointmentStatus = "CANCELLED"
	StatusNoShow      AppointmentStatus = "NO_SHOW"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// Terminal states reject further edits and cancellation
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Blocking reports whether the appointment occupies its time slot for
// conflict purposes.
func (s AppointmentStatus) Blocking() bool {
	return s != StatusCancelled && s != StatusNoShow
}

type Appointment struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID       uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID        uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	// User id of the employee or admin acting as provider
	AssigneeID *uuid.UUID `gorm:"type:uuid;index"`

	Date      string            `gorm:"type:date;index;not null"` // YYYY-MM-DD
	StartTime string            `gorm:"type:varchar(5);not null"` // HH:MM
	EndTime   string            `gorm:"type:varchar(5);not null"` // HH:MM, exclusive
	Status    AppointmentStatus `gorm:"type:varchar(20);default:'SCHEDULED';index"`

	Notes       string  `gorm:"type:text"`
	TotalAmount float64 `gorm:"type:decimal(10,2);not null"`

	Client     Client                 `gorm:"foreignKey:ClientID"`
	Treatments []AppointmentTreatment `gorm:"foreignKey:AppointmentID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// AppointmentTreatment is a booked line with the catalog price snapshotted
// at booking time, decoupled from later price changes.
type AppointmentTreatment struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	AppointmentID uuid.UUID `gorm:"type:uuid;index;not null"`
	TreatmentID   uuid.UUID `gorm:"type:uuid;index;not null"`
	TreatmentName string    `gorm:"not null"`
	Quantity      int       `gorm:"default:1"`
	UnitPrice     float64   `gorm:"type:decimal(10,2);not null"`
	TotalPrice    float64   `gorm:"type:decimal(10,2);not null"`
}

func (l *AppointmentTreatment) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
