package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository defines the interface for payment record operations.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, id, status string) error
	MarkVerified(ctx context.Context, intentID, status string) (int64, error)
}

type paymentRepository struct {
	store
}

// NewPaymentRepository creates a new PaymentRepository instance.
func NewPaymentRepository(db *gorm.DB, timeout time.Duration) PaymentRepository {
	return &paymentRepository{store: newStore(db, timeout)}
}

// Create inserts payment. When it references an intent whose verdict has
// already arrived, the verdict is applied before the insert. The verdict
// row is locked for the duration so a concurrent MarkVerified either lands
// first and is seen here, or waits and then updates the new record.
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if payment.IntentID != "" {
			verdict := models.IntentVerdict{IntentID: payment.IntentID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&verdict).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&verdict, "intent_id = ?", payment.IntentID).Error; err != nil {
				return err
			}
			if verdict.Status != "" {
				payment.Status = verdict.Status
				payment.Verified = true
			}
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", translate(err))
	}
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var payment models.Payment
	if err := db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", id, translate(err))
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var payments []models.Payment
	if err := db.Order("created_at, id").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", translate(err))
	}
	return payments, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	db, cancel := r.session(ctx)
	defer cancel()

	res := db.Model(&models.Payment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update payment %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkVerified stores the processor's verdict for intentID, applies it to
// every payment that references the intent and returns how many records
// matched. Payments recorded later pick the stored verdict up in Create.
func (r *paymentRepository) MarkVerified(ctx context.Context, intentID, status string) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var matched int64
	err := db.Transaction(func(tx *gorm.DB) error {
		verdict := models.IntentVerdict{IntentID: intentID, Status: status}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "intent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&verdict).Error
		if err != nil {
			return err
		}

		res := tx.Model(&models.Payment{}).
			Where("intent_id = ?", intentID).
			Updates(map[string]interface{}{"status": status, "verified": true})
		if res.Error != nil {
			return res.Error
		}
		matched = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to verify payments for intent %s: %w", intentID, translate(err))
	}
	return matched, nil
}
