package services

import (
	"errors"

	"clinicore-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedicalRecordCascade materializes the clinical record when an
// appointment reaches completion. Idempotent per appointment.
type MedicalRecordCascade struct {
	db *gorm.DB
}

func NewMedicalRecordCascade(db *gorm.DB) *MedicalRecordCascade {
	return &MedicalRecordCascade{db: db}
}

// EnsureMedicalRecord returns the existing record id for the appointment,
// or creates one with an empty diagnosis, no attachments and the
// appointment's date.
func (mc *MedicalRecordCascade) EnsureMedicalRecord(appointmentID, createdBy uuid.UUID) (uuid.UUID, error) {
	var existing models.MedicalRecord
	err := mc.db.Where("appointment_id = ?", appointmentID).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	var appt models.Appointment
	if err := mc.db.First(&appt, "id = ?", appointmentID).Error; err != nil {
		return uuid.Nil, err
	}

	record := models.MedicalRecord{
		CompanyID:       appt.CompanyID,
		AppointmentID:   appt.ID,
		ClientID:        appt.ClientID,
		CreatedByUserID: createdBy,
		Diagnosis:       "",
		Attachments:     nil,
		Date:            appt.Date,
	}

	if err := mc.db.Create(&record).Error; err != nil {
		var raced models.MedicalRecord
		if err2 := mc.db.Where("appointment_id = ?", appointmentID).First(&raced).Error; err2 == nil {
			return raced.ID, nil
		}
		return uuid.Nil, err
	}
	return record.ID, nil
}
