// controllers/invoice.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/services"
	"clinicore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplyDiscountInput struct {
	Type  models.DiscountType `json:"type" binding:"required,oneof=percentage fixed"`
	Value float64             `json:"value" binding:"min=0"`
}

type RecordPaymentInput struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required,oneof=cash card transfer"`
	Paid   bool    `json:"paid"`
}

// invoiceScope narrows the invoice query to what the requester may see.
// Client-role requesters only reach invoices of their own client record.
func invoiceScope(r models.Requester, companyUUID uuid.UUID) *gorm.DB {
	q := config.DB.Where("company_id = ?", companyUUID)
	if r.Role.IsClient() {
		var client models.Client
		if err := config.DB.Where("company_id = ? AND user_id = ?", companyUUID, r.UserID).
			First(&client).Error; err != nil {
			// No backing client record: match nothing
			return q.Where("1 = 0")
		}
		q = q.Where("client_id = ?", client.ID)
	}
	return q
}

// GetInvoices retrieves the visible invoices
func GetInvoices(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	q := invoiceScope(r, companyUUID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var invoices []models.Invoice
	if err := q.Preload("Payments").Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves a specific invoice by ID
func GetInvoice(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	q := invoiceScope(r, companyUUID)

	var invoice models.Invoice
	if err := q.Preload("Payments").Where("id = ?", invoiceUUID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// ApplyInvoiceDiscount stores a discount and recomputes the amount against
// the current subtotal
func ApplyInvoiceDiscount(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("billing:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Billing access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var input ApplyDiscountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	cascade := services.NewInvoiceCascade(config.DB)
	invoice, err := cascade.ApplyDiscount(companyUUID, invoiceUUID, input.Type, input.Value)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// RecordInvoicePayment appends a payment row and rolls the invoice status
// forward. No gateway logic lives here; this is bookkeeping only.
func RecordInvoicePayment(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("billing:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Billing access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var input RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var invoice models.Invoice
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ? AND id = ?", companyUUID, invoiceUUID).
			First(&invoice).Error; err != nil {
			return err
		}
		if invoice.Status == models.InvoiceCancelled {
			return errors.New("invoice is cancelled")
		}

		payment := models.Payment{
			CompanyID:     companyUUID,
			AppointmentID: invoice.AppointmentID,
			InvoiceID:     invoice.ID,
			Amount:        input.Amount,
			Method:        input.Method,
			Status:        models.PaymentPending,
		}
		if input.Paid {
			now := time.Now()
			payment.Status = models.PaymentPaid
			payment.PaidAt = &now
			invoice.PaidAmount += input.Amount
			if invoice.PaidAmount >= invoice.Amount {
				invoice.Status = models.InvoicePaid
			} else {
				invoice.Status = models.InvoicePartial
			}
		}

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.Save(&invoice).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusBadRequest, txErr.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, invoice)
}
