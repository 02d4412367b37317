package controllers

import (
	"net/http"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/services"
	"clinicore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateAppointmentInput defines the expected JSON structure for booking
type CreateAppointmentInput struct {
	ClientID   uuid.UUID                     `json:"clientId"`
	AssigneeID *uuid.UUID                    `json:"assigneeId"`
	Date       string                        `json:"date" binding:"required"`
	StartTime  string                        `json:"startTime" binding:"required"`
	EndTime    string                        `json:"endTime" binding:"required"`
	Notes      string                        `json:"notes"`
	Treatments []services.TreatmentLineInput `json:"treatments" binding:"required,min=1"`
}

type UpdateAppointmentInput struct {
	ClientID   *uuid.UUID                     `json:"clientId"`
	AssigneeID *uuid.UUID                     `json:"assigneeId"`
	Date       *string                        `json:"date"`
	StartTime  *string                        `json:"startTime"`
	EndTime    *string                        `json:"endTime"`
	Notes      *string                        `json:"notes"`
	Treatments *[]services.TreatmentLineInput `json:"treatments"`
}

type CancelAppointmentInput struct {
	Reason string `json:"reason"`
}

type UpdateStatusInput struct {
	Status models.AppointmentStatus `json:"status" binding:"required"`
}

// CreateAppointment books a new appointment
func CreateAppointment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	companyID, ok := selectedCompany(c)
	if !ok {
		return
	}

	svc := services.NewAppointmentService(config.DB)
	result, err := svc.Create(r, services.CreateAppointmentInput{
		ClientID:   input.ClientID,
		AssigneeID: input.AssigneeID,
		Date:       input.Date,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Notes:      input.Notes,
		Treatments: input.Treatments,
		CompanyID:  companyID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetAppointments lists appointments with filters, subject to tenant scope
func GetAppointments(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	companyID, ok := selectedCompany(c)
	if !ok {
		return
	}

	filters := services.AppointmentFilters{
		Search:            c.Query("search"),
		Status:            models.AppointmentStatus(c.Query("status")),
		StartDate:         c.Query("startDate"),
		EndDate:           c.Query("endDate"),
		SelectedCompanyID: companyID,
	}
	if q := c.Query("assigneeId"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid assigneeId format")
			return
		}
		filters.AssigneeID = &id
	}
	if q := c.Query("clientId"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid clientId format")
			return
		}
		filters.ClientID = &id
	}

	svc := services.NewAppointmentService(config.DB)
	appointments, err := svc.List(r, filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// GetAppointment retrieves a specific appointment by ID
func GetAppointment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	companyID, ok := selectedCompany(c)
	if !ok {
		return
	}

	svc := services.NewAppointmentService(config.DB)
	appointment, err := svc.Get(r, appointmentUUID, companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// UpdateAppointment edits fields and/or replaces treatment lines
func UpdateAppointment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var input UpdateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc := services.NewAppointmentService(config.DB)
	result, err := svc.Update(r, appointmentUUID, services.UpdateAppointmentInput{
		ClientID:   input.ClientID,
		AssigneeID: input.AssigneeID,
		Date:       input.Date,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Notes:      input.Notes,
		Treatments: input.Treatments,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ConfirmAppointment moves a SCHEDULED/RESCHEDULED appointment to CONFIRMED
func ConfirmAppointment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	svc := services.NewAppointmentService(config.DB)
	result, err := svc.Confirm(r, appointmentUUID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelAppointment cancels with an optional reason
func CancelAppointment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var input CancelAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc := services.NewAppointmentService(config.DB)
	result, err := svc.Cancel(r, appointmentUUID, input.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateAppointmentStatus applies the staff-only generic transition
func UpdateAppointmentStatus(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc := services.NewAppointmentService(config.DB)
	result, err := svc.UpdateStatus(r, appointmentUUID, input.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteAppointment removes the appointment and its treatment lines
func DeleteAppointment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	svc := services.NewAppointmentService(config.DB)
	if err := svc.Delete(r, appointmentUUID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
