package services

import (
	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OverdueService flips unpaid invoices past their due date to OVERDUE.
type OverdueService struct {
	db *gorm.DB
}

func NewOverdueService(db *gorm.DB) *OverdueService {
	return &OverdueService{db: db}
}

func (s *OverdueService) StartScheduler() {
	c := cron.New()

	// Run every day at 1 AM
	c.AddFunc("0 1 * * *", func() {
		s.MarkOverdueInvoices()
	})

	c.Start()
	config.SLog.Info("Invoice overdue scheduler started")
}

func (s *OverdueService) MarkOverdueInvoices() {
	today := utils.Today()

	result := s.db.Model(&models.Invoice{}).
		Where("status IN ? AND due_date < ?",
			[]models.InvoiceStatus{models.InvoicePending, models.InvoicePartial}, today).
		Update("status", models.InvoiceOverdue)

	if result.Error != nil {
		config.Log.Error("overdue sweep failed", zap.Error(result.Error))
		return
	}
	if result.RowsAffected > 0 {
		config.Log.Info("invoices marked overdue", zap.Int64("count", result.RowsAffected))
	}
}
