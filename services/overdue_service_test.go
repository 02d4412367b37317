package services

import (
	"testing"

	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkOverdueInvoices(t *testing.T) {
	db := openTestDB(t)
	company := seedCompany(t, db, "Clinic A")
	client := seedClient(t, db, company.ID, "Pat", nil)

	yesterday, err := utils.AddDays(utils.Today(), -1)
	require.NoError(t, err)
	nextWeek, err := utils.AddDays(utils.Today(), 7)
	require.NoError(t, err)

	seed := func(t *testing.T, status models.InvoiceStatus, dueDate string) *models.Invoice {
		invoice := &models.Invoice{
			CompanyID:     company.ID,
			AppointmentID: uuid.New(),
			ClientID:      client.ID,
			InvoiceNumber: "INV-TEST-" + uuid.NewString()[:8],
			Subtotal:      100,
			Amount:        100,
			Status:        status,
			DueDate:       dueDate,
		}
		require.NoError(t, db.Create(invoice).Error)
		return invoice
	}

	pastPending := seed(t, models.InvoicePending, yesterday)
	pastPartial := seed(t, models.InvoicePartial, yesterday)
	pastPaid := seed(t, models.InvoicePaid, yesterday)
	pastCancelled := seed(t, models.InvoiceCancelled, yesterday)
	futurePending := seed(t, models.InvoicePending, nextWeek)
	dueToday := seed(t, models.InvoicePending, utils.Today())

	NewOverdueService(db).MarkOverdueInvoices()

	status := func(id uuid.UUID) models.InvoiceStatus {
		var invoice models.Invoice
		require.NoError(t, db.First(&invoice, "id = ?", id).Error)
		return invoice.Status
	}

	assert.Equal(t, models.InvoiceOverdue, status(pastPending.ID))
	assert.Equal(t, models.InvoiceOverdue, status(pastPartial.ID))
	assert.Equal(t, models.InvoicePaid, status(pastPaid.ID))
	assert.Equal(t, models.InvoiceCancelled, status(pastCancelled.ID))
	assert.Equal(t, models.InvoicePending, status(futurePending.ID))
	assert.Equal(t, models.InvoicePending, status(dueToday.ID))
}
