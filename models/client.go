package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID       uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	// Portal account, when the client can log in themselves
	UserID *uuid.UUID `gorm:"type:uuid;index"`

	Name     string `gorm:"not null"`
	Phone    string `gorm:"not null;uniqueIndex:idx_company_phone,priority:2"`
	Email    string
	Birthday *time.Time
	Notes    string
	IsActive bool `gorm:"default:true"`

	Appointments []Appointment `gorm:"foreignKey:ClientID"`
	Invoices     []Invoice     `gorm:"foreignKey:ClientID"`

	gorm.Model
}

func (cl *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if cl.ID == uuid.Nil {
		cl.ID = uuid.New()
	}
	return
}
