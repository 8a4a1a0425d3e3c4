package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"gorm.io/gorm"
)

// BookingRepository defines the interface for booking operations.
type BookingRepository interface {
	Claim(ctx context.Context, booking *models.Booking) error
	ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
}

type bookingRepository struct {
	store
}

// NewBookingRepository creates a new BookingRepository instance.
func NewBookingRepository(db *gorm.DB, timeout time.Duration) BookingRepository {
	return &bookingRepository{store: newStore(db, timeout)}
}

// Claim books the first open slot matching booking.ProviderID, Date and
// Time for booking.UserID and inserts the booking, in one transaction.
// The slot flip only applies while the row is still unbooked and
// bookings.slot_id is unique, so concurrent claims on one slot yield a
// single winner; the rest get ErrNoOpenSlot.
func (r *bookingRepository) Claim(ctx context.Context, booking *models.Booking) error {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Provider{}, "id = ?", booking.ProviderID).Error; err != nil {
			return translate(err)
		}

		var slot models.Slot
		err := tx.Where("provider_id = ? AND slot_date = ? AND slot_time = ? AND booked = ?",
			booking.ProviderID, booking.Date, booking.Time, false).
			Order("id").
			First(&slot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoOpenSlot
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.Slot{}).
			Where("id = ? AND booked = ?", slot.ID, false).
			Updates(map[string]interface{}{"booked": true, "user_id": booking.UserID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoOpenSlot
		}

		booking.SlotID = slot.ID
		if booking.ID == "" {
			booking.ID = uuid.NewString()
		}
		if err := tx.Create(booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrNoOpenSlot
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to claim slot %s %s for provider %s: %w",
			booking.Date, booking.Time, booking.ProviderID, translate(err))
	}
	return nil
}

func (r *bookingRepository) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var bookings []models.Booking
	if err := db.Where("provider_id = ?", providerID).Order("created_at, id").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings for provider %s: %w", providerID, translate(err))
	}
	return bookings, nil
}

func (r *bookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var bookings []models.Booking
	if err := db.Order("created_at, id").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", translate(err))
	}
	return bookings, nil
}
