package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProviderRepository defines the interface for provider and slot operations.
type ProviderRepository interface {
	Create(ctx context.Context, provider *models.Provider) error
	FindByID(ctx context.Context, id string) (*models.Provider, error)
	FindByEmail(ctx context.Context, email string) (*models.Provider, error)
	List(ctx context.Context) ([]models.Provider, error)
	ListSlots(ctx context.Context, providerID string) ([]models.Slot, error)
	AppendSlots(ctx context.Context, providerID string, slots []models.Slot, rejectDuplicates bool) error
	ReplaceSlots(ctx context.Context, providerID string, slots []models.Slot, rejectDuplicates bool) error
}

type providerRepository struct {
	store
}

// NewProviderRepository creates a new ProviderRepository instance.
func NewProviderRepository(db *gorm.DB, timeout time.Duration) ProviderRepository {
	return &providerRepository{store: newStore(db, timeout)}
}

func orderedSlots(db *gorm.DB) *gorm.DB {
	return db.Order("slots.id")
}

func (r *providerRepository) Create(ctx context.Context, provider *models.Provider) error {
	db, cancel := r.session(ctx)
	defer cancel()

	if err := db.Omit(clause.Associations).Create(provider).Error; err != nil {
		return fmt.Errorf("failed to create provider: %w", translate(err))
	}
	return nil
}

func (r *providerRepository) FindByID(ctx context.Context, id string) (*models.Provider, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var provider models.Provider
	if err := db.Preload("Slots", orderedSlots).First(&provider, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to find provider %s: %w", id, translate(err))
	}
	return &provider, nil
}

func (r *providerRepository) FindByEmail(ctx context.Context, email string) (*models.Provider, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var provider models.Provider
	if err := db.Where("email = ?", email).First(&provider).Error; err != nil {
		return nil, fmt.Errorf("failed to find provider by email %s: %w", email, translate(err))
	}
	return &provider, nil
}

func (r *providerRepository) List(ctx context.Context) ([]models.Provider, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var providers []models.Provider
	if err := db.Preload("Slots", orderedSlots).Order("created_at, id").Find(&providers).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", translate(err))
	}
	return providers, nil
}

func (r *providerRepository) ListSlots(ctx context.Context, providerID string) ([]models.Slot, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var slots []models.Slot
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Provider{}, "id = ?", providerID).Error; err != nil {
			return translate(err)
		}
		return tx.Where("provider_id = ?", providerID).Order("id").Find(&slots).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for provider %s: %w", providerID, translate(err))
	}
	return slots, nil
}

// AppendSlots adds slots after the existing ones. With rejectDuplicates
// the batch may neither repeat a (date, time) nor collide with a stored slot.
func (r *providerRepository) AppendSlots(ctx context.Context, providerID string, slots []models.Slot, rejectDuplicates bool) error {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockProvider(tx, providerID); err != nil {
			return err
		}

		if rejectDuplicates {
			var existing []models.Slot
			if err := tx.Where("provider_id = ?", providerID).Find(&existing).Error; err != nil {
				return err
			}
			if err := checkDuplicates(existing, slots); err != nil {
				return err
			}
		}
		return insertSlots(tx, providerID, slots)
	})
	if err != nil {
		return fmt.Errorf("failed to add slots for provider %s: %w", providerID, translate(err))
	}
	return nil
}

// ReplaceSlots overwrites the whole slot collection, booked slots included.
func (r *providerRepository) ReplaceSlots(ctx context.Context, providerID string, slots []models.Slot, rejectDuplicates bool) error {
	if rejectDuplicates {
		if err := checkDuplicates(nil, slots); err != nil {
			return fmt.Errorf("failed to replace slots for provider %s: %w", providerID, err)
		}
	}

	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockProvider(tx, providerID); err != nil {
			return err
		}
		if err := tx.Where("provider_id = ?", providerID).Delete(&models.Slot{}).Error; err != nil {
			return err
		}
		return insertSlots(tx, providerID, slots)
	})
	if err != nil {
		return fmt.Errorf("failed to replace slots for provider %s: %w", providerID, translate(err))
	}
	return nil
}

func lockProvider(tx *gorm.DB, providerID string) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&models.Provider{}, "id = ?", providerID).Error
	return translate(err)
}

func insertSlots(tx *gorm.DB, providerID string, slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	rows := make([]models.Slot, len(slots))
	for i, s := range slots {
		rows[i] = models.Slot{
			ProviderID: providerID,
			Date:       s.Date,
			Time:       s.Time,
			Booked:     s.Booked,
			UserID:     s.UserID,
		}
	}
	return tx.Create(&rows).Error
}

func checkDuplicates(existing, incoming []models.Slot) error {
	seen := make(map[models.SlotKey]bool, len(existing)+len(incoming))
	for _, s := range existing {
		seen[s.Key()] = true
	}
	for _, s := range incoming {
		if seen[s.Key()] {
			return fmt.Errorf("%w: slot %s %s", ErrDuplicate, s.Date, s.Time)
		}
		seen[s.Key()] = true
	}
	return nil
}
