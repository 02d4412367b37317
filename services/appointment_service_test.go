package services

import (
	"testing"

	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateAppointment(t *testing.T) {
	db := openTestDB(t)
	svc := NewAppointmentService(db)
	company := seedCompany(t, db, "Clinic A")
	admin := seedUser(t, db, &company.ID, models.RoleAdmin)
	assignee := seedUser(t, db, &company.ID, models.RoleEmployee)
	client := seedClient(t, db, company.ID, "Pat", nil)
	consult := seedTreatment(t, db, company.ID, "Consultation", 50)
	cleaning := seedTreatment(t, db, company.ID, "Cleaning", 35)
	date := futureDate(t, 7)

	t.Run("books with price snapshot and quantity totals", func(t *testing.T) {
		res, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			AssigneeID: &assignee.ID,
			Date:       date,
			StartTime:  "09:00",
			EndTime:    "10:00",
			Treatments: []TreatmentLineInput{
				{TreatmentID: consult.ID},
				{TreatmentID: cleaning.ID, Quantity: 2},
			},
		})
		require.NoError(t, err)

		appt := res.Appointment
		assert.Equal(t, models.StatusScheduled, appt.Status)
		assert.Equal(t, 50.0+2*35.0, appt.TotalAmount)
		require.Len(t, appt.Treatments, 2)
		assert.Equal(t, "Consultation", appt.Treatments[0].TreatmentName)
		assert.Equal(t, 2, appt.Treatments[1].Quantity)
		assert.Equal(t, 70.0, appt.Treatments[1].TotalPrice)
	})

	t.Run("overlapping slot for the same assignee is rejected", func(t *testing.T) {
		var before int64
		require.NoError(t, db.Model(&models.Appointment{}).Count(&before).Error)

		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			AssigneeID: &assignee.ID,
			Date:       date,
			StartTime:  "09:30",
			EndTime:    "10:30",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))

		// Nothing persisted by the rejected attempt
		var after int64
		require.NoError(t, db.Model(&models.Appointment{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})

	t.Run("touching boundary slot is accepted", func(t *testing.T) {
		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			AssigneeID: &assignee.ID,
			Date:       date,
			StartTime:  "10:00",
			EndTime:    "11:00",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)
	})

	t.Run("same slot without assignee is accepted", func(t *testing.T) {
		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			Date:       date,
			StartTime:  "09:00",
			EndTime:    "10:00",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)
	})

	t.Run("past slot is rejected", func(t *testing.T) {
		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			Date:       "2020-01-01",
			StartTime:  "09:00",
			EndTime:    "10:00",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			Date:       date,
			StartTime:  "14:00",
			EndTime:    "13:00",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("empty treatment list is rejected", func(t *testing.T) {
		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:  client.ID,
			Date:      date,
			StartTime: "12:00",
			EndTime:   "13:00",
		})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("inactive treatment is rejected", func(t *testing.T) {
		retired := seedTreatment(t, db, company.ID, "Retired", 10)
		require.NoError(t, db.Model(retired).Update("is_active", false).Error)

		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			Date:       date,
			StartTime:  "12:00",
			EndTime:    "13:00",
			Treatments: []TreatmentLineInput{{TreatmentID: retired.ID}},
		})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("treatment from another tenant reads as not found", func(t *testing.T) {
		companyB := seedCompany(t, db, "Clinic B")
		foreign := seedTreatment(t, db, companyB.ID, "Foreign", 99)

		_, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			Date:       date,
			StartTime:  "12:00",
			EndTime:    "13:00",
			Treatments: []TreatmentLineInput{{TreatmentID: foreign.ID}},
		})
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("client role always books for itself", func(t *testing.T) {
		portal := seedUser(t, db, &company.ID, models.RoleClient)
		own := seedClient(t, db, company.ID, "Portal Pat", &portal.ID)
		decoy := seedClient(t, db, company.ID, "Decoy", nil)

		res, err := svc.Create(clientRequester(portal), CreateAppointmentInput{
			ClientID:   decoy.ID, // ignored
			Date:       date,
			StartTime:  "15:00",
			EndTime:    "16:00",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)
		assert.Equal(t, own.ID, res.Appointment.ClientID)
	})
}

func TestConfirmAppointment(t *testing.T) {
	db := openTestDB(t)
	svc := NewAppointmentService(db)
	company := seedCompany(t, db, "Clinic A")
	admin := seedUser(t, db, &company.ID, models.RoleAdmin)
	client := seedClient(t, db, company.ID, "Pat", nil)
	consult := seedTreatment(t, db, company.ID, "Consultation", 120)
	date := futureDate(t, 7)

	book := func(t *testing.T, start, end string) *models.Appointment {
		res, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			Date:       date,
			StartTime:  start,
			EndTime:    end,
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)
		return res.Appointment
	}

	t.Run("confirming creates the invoice", func(t *testing.T) {
		appt := book(t, "09:00", "10:00")

		res, err := svc.Confirm(staffRequester(admin), appt.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, res.Appointment.Status)
		require.Len(t, res.SideEffects, 1)
		require.True(t, res.SideEffects[0].OK)

		var invoice models.Invoice
		require.NoError(t, db.Where("appointment_id = ?", appt.ID).First(&invoice).Error)
		assert.Equal(t, 120.0, invoice.Subtotal)
		assert.Equal(t, 120.0, invoice.Amount)
		assert.Equal(t, models.InvoicePending, invoice.Status)
		wantDue, err := utils.AddDays(date, 30)
		require.NoError(t, err)
		assert.Equal(t, wantDue, invoice.DueDate)
		assert.Contains(t, invoice.Description, "Consultation")
		assert.Contains(t, invoice.Description, "Pat")
	})

	t.Run("double confirm is rejected and stays at one invoice", func(t *testing.T) {
		appt := book(t, "10:00", "11:00")
		_, err := svc.Confirm(staffRequester(admin), appt.ID)
		require.NoError(t, err)

		_, err = svc.Confirm(staffRequester(admin), appt.ID)
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))

		var n int64
		require.NoError(t, db.Model(&models.Invoice{}).
			Where("appointment_id = ?", appt.ID).Count(&n).Error)
		assert.EqualValues(t, 1, n)
	})

	t.Run("confirming a cancelled appointment is rejected", func(t *testing.T) {
		appt := book(t, "11:00", "12:00")
		_, err := svc.Cancel(staffRequester(admin), appt.ID, "")
		require.NoError(t, err)

		_, err = svc.Confirm(staffRequester(admin), appt.ID)
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("owning client may confirm", func(t *testing.T) {
		portal := seedUser(t, db, &company.ID, models.RoleClient)
		own := seedClient(t, db, company.ID, "Portal Pat", &portal.ID)
		res, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   own.ID,
			Date:       date,
			StartTime:  "13:00",
			EndTime:    "14:00",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)

		confirmed, err := svc.Confirm(clientRequester(portal), res.Appointment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, confirmed.Appointment.Status)
	})

	t.Run("another client's appointment reads as not found", func(t *testing.T) {
		stranger := seedUser(t, db, &company.ID, models.RoleClient)
		seedClient(t, db, company.ID, "Stranger", &stranger.ID)
		appt := book(t, "14:00", "15:00")

		_, err := svc.Confirm(clientRequester(stranger), appt.ID)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestUpdateStatusCascades(t *testing.T) {
	db := openTestDB(t)
	svc := NewAppointmentService(db)
	company := seedCompany(t, db, "Clinic A")
	admin := seedUser(t, db, &company.ID, models.RoleAdmin)
	client := seedClient(t, db, company.ID, "Pat", nil)
	consult := seedTreatment(t, db, company.ID, "Consultation", 80)
	date := futureDate(t, 7)

	res, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
		ClientID:   client.ID,
		Date:       date,
		StartTime:  "09:00",
		EndTime:    "10:00",
		Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
	})
	require.NoError(t, err)
	apptID := res.Appointment.ID

	t.Run("completion creates invoice and medical record", func(t *testing.T) {
		out, err := svc.UpdateStatus(staffRequester(admin), apptID, models.StatusCompleted)
		require.NoError(t, err)
		require.Len(t, out.SideEffects, 2)
		assert.True(t, out.SideEffects[0].OK)
		assert.True(t, out.SideEffects[1].OK)

		var record models.MedicalRecord
		require.NoError(t, db.Where("appointment_id = ?", apptID).First(&record).Error)
		assert.Equal(t, client.ID, record.ClientID)
		assert.Equal(t, admin.ID, record.CreatedByUserID)
		assert.Equal(t, date, record.Date)
		assert.Empty(t, record.Diagnosis)
	})

	t.Run("re-entering the same state fires no cascade", func(t *testing.T) {
		out, err := svc.UpdateStatus(staffRequester(admin), apptID, models.StatusCompleted)
		require.NoError(t, err)
		assert.Empty(t, out.SideEffects)

		var invoices, records int64
		require.NoError(t, db.Model(&models.Invoice{}).Where("appointment_id = ?", apptID).Count(&invoices).Error)
		require.NoError(t, db.Model(&models.MedicalRecord{}).Where("appointment_id = ?", apptID).Count(&records).Error)
		assert.EqualValues(t, 1, invoices)
		assert.EqualValues(t, 1, records)
	})

	t.Run("leaving and re-entering completion stays idempotent", func(t *testing.T) {
		_, err := svc.UpdateStatus(staffRequester(admin), apptID, models.StatusInProgress)
		require.NoError(t, err)
		out, err := svc.UpdateStatus(staffRequester(admin), apptID, models.StatusCompleted)
		require.NoError(t, err)
		require.Len(t, out.SideEffects, 2)

		var records int64
		require.NoError(t, db.Model(&models.MedicalRecord{}).Where("appointment_id = ?", apptID).Count(&records).Error)
		assert.EqualValues(t, 1, records)
	})

	t.Run("invalid target is rejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(staffRequester(admin), apptID, "DONE")
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("client role cannot use the override", func(t *testing.T) {
		portal := seedUser(t, db, &company.ID, models.RoleClient)
		_, err := svc.UpdateStatus(clientRequester(portal), apptID, models.StatusScheduled)
		require.Error(t, err)
		assert.Equal(t, KindAuthorization, KindOf(err))
	})
}

func TestUpdateAppointment(t *testing.T) {
	db := openTestDB(t)
	svc := NewAppointmentService(db)
	company := seedCompany(t, db, "Clinic A")
	admin := seedUser(t, db, &company.ID, models.RoleAdmin)
	assignee := seedUser(t, db, &company.ID, models.RoleEmployee)
	client := seedClient(t, db, company.ID, "Pat", nil)
	consult := seedTreatment(t, db, company.ID, "Consultation", 120)
	extended := seedTreatment(t, db, company.ID, "Extended Consultation", 200)
	date := futureDate(t, 7)

	book := func(t *testing.T, start, end string, who *uuid.UUID) *models.Appointment {
		res, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			AssigneeID: who,
			Date:       date,
			StartTime:  start,
			EndTime:    end,
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)
		return res.Appointment
	}

	t.Run("line replacement recomputes total and resyncs the invoice", func(t *testing.T) {
		appt := book(t, "09:00", "10:00", nil)
		_, err := svc.Confirm(staffRequester(admin), appt.ID)
		require.NoError(t, err)

		// 10% off the 120 subtotal
		inv, err := svc.Invoices().ApplyDiscount(company.ID, invoiceFor(t, db, appt.ID).ID,
			models.DiscountPercentage, 10)
		require.NoError(t, err)
		assert.Equal(t, 108.0, inv.Amount)

		lines := []TreatmentLineInput{{TreatmentID: extended.ID}}
		res, err := svc.Update(staffRequester(admin), appt.ID, UpdateAppointmentInput{Treatments: &lines})
		require.NoError(t, err)
		assert.Equal(t, 200.0, res.Appointment.TotalAmount)

		// Percentage discount re-evaluates against the new subtotal
		fresh := invoiceFor(t, db, appt.ID)
		assert.Equal(t, 200.0, fresh.Subtotal)
		assert.Equal(t, 180.0, fresh.Amount)
	})

	t.Run("slot move re-runs conflict detection excluding itself", func(t *testing.T) {
		first := book(t, "11:00", "12:00", &assignee.ID)
		second := book(t, "13:00", "14:00", &assignee.ID)

		// Moving onto the other booking conflicts
		start, end := "11:30", "12:30"
		_, err := svc.Update(staffRequester(admin), second.ID,
			UpdateAppointmentInput{StartTime: &start, EndTime: &end})
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))

		// Shifting within its own slot excludes itself from the check
		newStart, newEnd := "11:15", "12:15"
		_, err = svc.Update(staffRequester(admin), first.ID,
			UpdateAppointmentInput{StartTime: &newStart, EndTime: &newEnd})
		require.NoError(t, err)
	})

	t.Run("terminal states reject edits", func(t *testing.T) {
		appt := book(t, "15:00", "16:00", nil)
		_, err := svc.Cancel(staffRequester(admin), appt.ID, "no show risk")
		require.NoError(t, err)

		notes := "too late"
		_, err = svc.Update(staffRequester(admin), appt.ID, UpdateAppointmentInput{Notes: &notes})
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("client cannot reassign the appointment", func(t *testing.T) {
		portal := seedUser(t, db, &company.ID, models.RoleClient)
		own := seedClient(t, db, company.ID, "Portal Pat", &portal.ID)
		res, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   own.ID,
			Date:       date,
			StartTime:  "16:00",
			EndTime:    "17:00",
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)

		_, err = svc.Update(clientRequester(portal), res.Appointment.ID,
			UpdateAppointmentInput{ClientID: &client.ID})
		require.Error(t, err)
		assert.Equal(t, KindAuthorization, KindOf(err))
	})
}

func TestCancelAndDeleteGuards(t *testing.T) {
	db := openTestDB(t)
	svc := NewAppointmentService(db)
	company := seedCompany(t, db, "Clinic A")
	admin := seedUser(t, db, &company.ID, models.RoleAdmin)
	client := seedClient(t, db, company.ID, "Pat", nil)
	consult := seedTreatment(t, db, company.ID, "Consultation", 60)
	date := futureDate(t, 7)

	book := func(t *testing.T, start, end string) *models.Appointment {
		res, err := svc.Create(staffRequester(admin), CreateAppointmentInput{
			ClientID:   client.ID,
			Date:       date,
			StartTime:  start,
			EndTime:    end,
			Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
		})
		require.NoError(t, err)
		return res.Appointment
	}

	addPayment := func(t *testing.T, apptID uuid.UUID, status models.PaymentStatus) {
		require.NoError(t, db.Create(&models.Payment{
			CompanyID:     company.ID,
			AppointmentID: apptID,
			InvoiceID:     uuid.New(),
			Amount:        60,
			Method:        "cash",
			Status:        status,
		}).Error)
	}

	t.Run("cancel records the reason in the notes", func(t *testing.T) {
		appt := book(t, "09:00", "10:00")
		res, err := svc.Cancel(staffRequester(admin), appt.ID, "patient request")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, res.Appointment.Status)
		assert.Contains(t, res.Appointment.Notes, "patient request")
	})

	t.Run("double cancel is rejected", func(t *testing.T) {
		appt := book(t, "10:00", "11:00")
		_, err := svc.Cancel(staffRequester(admin), appt.ID, "")
		require.NoError(t, err)
		_, err = svc.Cancel(staffRequester(admin), appt.ID, "")
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("completed appointments cannot be cancelled", func(t *testing.T) {
		appt := book(t, "11:00", "12:00")
		_, err := svc.UpdateStatus(staffRequester(admin), appt.ID, models.StatusCompleted)
		require.NoError(t, err)
		_, err = svc.Cancel(staffRequester(admin), appt.ID, "")
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("paid payment blocks cancel, pending does not", func(t *testing.T) {
		pending := book(t, "12:00", "13:00")
		addPayment(t, pending.ID, models.PaymentPending)
		_, err := svc.Cancel(staffRequester(admin), pending.ID, "")
		require.NoError(t, err)

		paid := book(t, "13:00", "14:00")
		addPayment(t, paid.ID, models.PaymentPaid)
		_, err = svc.Cancel(staffRequester(admin), paid.ID, "")
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("any payment blocks delete", func(t *testing.T) {
		appt := book(t, "14:00", "15:00")
		addPayment(t, appt.ID, models.PaymentPending)
		err := svc.Delete(staffRequester(admin), appt.ID)
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("delete removes the row and its lines", func(t *testing.T) {
		appt := book(t, "15:00", "16:00")
		require.NoError(t, svc.Delete(staffRequester(admin), appt.ID))

		var rows, lines int64
		require.NoError(t, db.Model(&models.Appointment{}).Where("id = ?", appt.ID).Count(&rows).Error)
		require.NoError(t, db.Model(&models.AppointmentTreatment{}).Where("appointment_id = ?", appt.ID).Count(&lines).Error)
		assert.Zero(t, rows)
		assert.Zero(t, lines)
	})

	t.Run("client role cannot delete", func(t *testing.T) {
		portal := seedUser(t, db, &company.ID, models.RoleClient)
		appt := book(t, "16:00", "17:00")
		err := svc.Delete(clientRequester(portal), appt.ID)
		require.Error(t, err)
		assert.Equal(t, KindAuthorization, KindOf(err))
	})
}

func TestTenantIsolation(t *testing.T) {
	db := openTestDB(t)
	svc := NewAppointmentService(db)
	companyA := seedCompany(t, db, "Clinic A")
	companyB := seedCompany(t, db, "Clinic B")
	adminA := seedUser(t, db, &companyA.ID, models.RoleAdmin)
	adminB := seedUser(t, db, &companyB.ID, models.RoleAdmin)
	clientA := seedClient(t, db, companyA.ID, "Pat", nil)
	consult := seedTreatment(t, db, companyA.ID, "Consultation", 60)

	res, err := svc.Create(staffRequester(adminA), CreateAppointmentInput{
		ClientID:   clientA.ID,
		Date:       futureDate(t, 7),
		StartTime:  "09:00",
		EndTime:    "10:00",
		Treatments: []TreatmentLineInput{{TreatmentID: consult.ID}},
	})
	require.NoError(t, err)
	apptID := res.Appointment.ID

	t.Run("foreign tenant reads as not found everywhere", func(t *testing.T) {
		_, err := svc.Get(staffRequester(adminB), apptID, nil)
		assert.Equal(t, KindNotFound, KindOf(err))

		_, err = svc.Confirm(staffRequester(adminB), apptID)
		assert.Equal(t, KindNotFound, KindOf(err))

		_, err = svc.Cancel(staffRequester(adminB), apptID, "")
		assert.Equal(t, KindNotFound, KindOf(err))

		err = svc.Delete(staffRequester(adminB), apptID)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("master reaches any tenant", func(t *testing.T) {
		masterUser := seedUser(t, db, nil, models.RoleMaster)
		got, err := svc.Get(masterRequester(masterUser), apptID, nil)
		require.NoError(t, err)
		assert.Equal(t, apptID, got.ID)
	})
}

func invoiceFor(t *testing.T, db *gorm.DB, appointmentID uuid.UUID) *models.Invoice {
	t.Helper()
	var invoice models.Invoice
	require.NoError(t, db.Where("appointment_id = ?", appointmentID).First(&invoice).Error)
	return &invoice
}
