// controllers/dashboard.go
package controllers

import (
	"net/http"
	"time"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview aggregates the headline numbers for the clinic's
// landing screen.
func GetDashboardOverview(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.IsStaff() {
		utils.RespondWithError(c, http.StatusForbidden, "Staff access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	// Total Clients
	var totalClients int64
	config.DB.Model(&models.Client{}).
		Where("company_id = ?", companyUUID).Count(&totalClients)

	// Today's appointments, excluding the slots already released
	today := utils.Today()
	var todayCount int64
	config.DB.Model(&models.Appointment{}).
		Where("company_id = ? AND date = ? AND status NOT IN ?",
			companyUUID, today, []models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow}).
		Count(&todayCount)

	var todayList []models.Appointment
	config.DB.Preload("Client").Preload("Treatments").
		Where("company_id = ? AND date = ? AND status NOT IN ?",
			companyUUID, today, []models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow}).
		Order("start_time").Limit(10).Find(&todayList)

	// This Month's Revenue (paid amounts on invoices issued this month)
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var monthlyRevenue float64
	config.DB.Model(&models.Invoice{}).
		Where("company_id = ? AND created_at >= ?", companyUUID, firstOfMonth).
		Select("COALESCE(SUM(paid_amount), 0)").Scan(&monthlyRevenue)

	// Outstanding invoices
	var pendingInvoices int64
	config.DB.Model(&models.Invoice{}).
		Where("company_id = ? AND status IN ?", companyUUID,
			[]models.InvoiceStatus{models.InvoicePending, models.InvoicePartial, models.InvoiceOverdue}).
		Count(&pendingInvoices)

	// Upcoming week
	weekEnd, _ := utils.AddDays(today, 7)
	var upcomingCount int64
	config.DB.Model(&models.Appointment{}).
		Where("company_id = ? AND date > ? AND date <= ? AND status NOT IN ?",
			companyUUID, today, weekEnd,
			[]models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow}).
		Count(&upcomingCount)

	c.JSON(http.StatusOK, gin.H{
		"totalClients":   totalClients,
		"monthlyRevenue": monthlyRevenue,
		"todaysAppointments": gin.H{
			"count": todayCount,
			"list":  todayList,
		},
		"pendingInvoices":      pendingInvoices,
		"upcomingAppointments": upcomingCount,
	})
}
