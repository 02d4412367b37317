// controllers/medicalrecord.go
package controllers

import (
	"errors"
	"net/http"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UpdateMedicalRecordInput struct {
	Diagnosis   *string              `json:"diagnosis"`
	Attachments *[]models.Attachment `json:"attachments"`
}

// recordScope narrows the medical record query to what the requester may
// see. Client-role requesters only reach their own records.
func recordScope(r models.Requester, companyUUID uuid.UUID) *gorm.DB {
	q := config.DB.Where("company_id = ?", companyUUID)
	if r.Role.IsClient() {
		var client models.Client
		if err := config.DB.Where("company_id = ? AND user_id = ?", companyUUID, r.UserID).
			First(&client).Error; err != nil {
			return q.Where("1 = 0")
		}
		q = q.Where("client_id = ?", client.ID)
	}
	return q
}

// GetMedicalRecords retrieves the visible medical records
func GetMedicalRecords(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	q := recordScope(r, companyUUID)
	if clientID := c.Query("clientId"); clientID != "" && r.Role.IsStaff() {
		clientUUID, err := uuid.Parse(clientID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		q = q.Where("client_id = ?", clientUUID)
	}

	var records []models.MedicalRecord
	if err := q.Order("date desc").Find(&records).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve medical records")
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetMedicalRecord retrieves a specific medical record by ID
func GetMedicalRecord(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	recordUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	var record models.MedicalRecord
	if err := recordScope(r, companyUUID).Where("id = ?", recordUUID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Medical record not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// UpdateMedicalRecord fills in the clinical content of a record created by
// the completion cascade
func UpdateMedicalRecord(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("records:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Records access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	recordUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	var input UpdateMedicalRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var record models.MedicalRecord
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, recordUUID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Medical record not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Diagnosis != nil {
		record.Diagnosis = *input.Diagnosis
	}
	if input.Attachments != nil {
		record.Attachments = *input.Attachments
	}

	if err := config.DB.Save(&record).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update medical record")
		return
	}

	c.JSON(http.StatusOK, record)
}
