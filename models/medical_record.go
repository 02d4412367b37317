package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment is metadata for a file linked to a medical record. Storage of
// the file itself lives outside this service.
type Attachment struct {
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	URL         string    `json:"url"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// MedicalRecord is created by the completion cascade; at most one exists
// per appointment.
type MedicalRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID       uuid.UUID `gorm:"type:uuid;index;not null"`
	AppointmentID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ClientID        uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Diagnosis   string       `gorm:"type:text"`
	Attachments []Attachment `gorm:"serializer:json"`
	Date        string       `gorm:"type:date;not null"` // appointment date

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *MedicalRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
