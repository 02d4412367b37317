package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Company struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Name    string    `gorm:"not null"`
	Address string
	Phone   string
	// Free-form settings (working hours, branding, etc.)
	Settings JSONB `gorm:"type:jsonb;default:'{}'"`
	IsActive bool  `gorm:"default:true"`

	Users        []User        `gorm:"foreignKey:CompanyID"`
	Clients      []Client      `gorm:"foreignKey:CompanyID"`
	Employees    []Employee    `gorm:"foreignKey:CompanyID"`
	Treatments   []Treatment   `gorm:"foreignKey:CompanyID"`
	Appointments []Appointment `gorm:"foreignKey:CompanyID"`

	gorm.Model
}

func (co *Company) BeforeCreate(tx *gorm.DB) (err error) {
	if co.ID == uuid.Nil {
		co.ID = uuid.New()
	}
	return
}
