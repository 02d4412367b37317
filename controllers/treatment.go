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

type CreateTreatmentInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"min=0"`
	Duration    int     `json:"duration" binding:"min=0"`
	Category    string  `json:"category"`
}

type UpdateTreatmentInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Duration    *int     `json:"duration" binding:"omitempty,min=0"`
	Category    *string  `json:"category"`
	IsActive    *bool    `json:"isActive"`
}

// CreateTreatment adds a catalog entry for the company
func CreateTreatment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("catalog:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Catalog access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	var input CreateTreatmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	treatment := models.Treatment{
		CompanyID:   companyUUID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
		IsActive:    true,
	}
	if treatment.Category == "" {
		treatment.Category = "General"
	}

	if err := config.DB.Create(&treatment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create treatment")
		return
	}

	c.JSON(http.StatusCreated, treatment)
}

// GetTreatments retrieves the company's treatment catalog
func GetTreatments(c *gin.Context) {
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	var treatments []models.Treatment
	if err := config.DB.Where("company_id = ?", companyUUID).Find(&treatments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve treatments")
		return
	}

	c.JSON(http.StatusOK, treatments)
}

// GetTreatment retrieves a specific treatment by ID
func GetTreatment(c *gin.Context) {
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	treatmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid treatment ID format")
		return
	}

	var treatment models.Treatment
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, treatmentUUID).
		First(&treatment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Treatment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, treatment)
}

// UpdateTreatment updates an existing treatment
func UpdateTreatment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("catalog:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Catalog access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	treatmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid treatment ID format")
		return
	}

	var input UpdateTreatmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var treatment models.Treatment
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, treatmentUUID).
		First(&treatment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Treatment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		treatment.Name = *input.Name
	}
	if input.Description != nil {
		treatment.Description = *input.Description
	}
	if input.Price != nil {
		// Existing booking lines keep their snapshot price
		treatment.Price = *input.Price
	}
	if input.Duration != nil {
		treatment.Duration = *input.Duration
	}
	if input.Category != nil {
		treatment.Category = *input.Category
	}
	if input.IsActive != nil {
		treatment.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&treatment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update treatment")
		return
	}

	c.JSON(http.StatusOK, treatment)
}

// DeleteTreatment deactivates a treatment instead of removing it, so
// historical booking lines keep a valid reference
func DeleteTreatment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("catalog:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Catalog access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	treatmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid treatment ID format")
		return
	}

	result := config.DB.Model(&models.Treatment{}).
		Where("company_id = ? AND id = ?", companyUUID, treatmentUUID).
		Update("is_active", false)

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete treatment")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Treatment not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Treatment deactivated successfully"})
}
