package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
)

// CreateProviderRequest is the payload for registering a provider.
type CreateProviderRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Specialization string `json:"specialization" validate:"max=200"`
	Email          string `json:"email" validate:"required,email"`
}

// SlotInput is one open slot to add.
type SlotInput struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,max=32"`
}

// AddSlotsRequest is the payload for appending slots.
type AddSlotsRequest struct {
	Slots []SlotInput `json:"slots" validate:"required,min=1,dive"`
}

// SlotState is a full slot, booking state included, for admin overwrites.
type SlotState struct {
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string  `json:"time" validate:"required,max=32"`
	Booked bool    `json:"booked"`
	UserID *string `json:"user_id,omitempty"`
}

// ReplaceSlotsRequest is the payload for the admin slot overwrite.
type ReplaceSlotsRequest struct {
	Slots []SlotState `json:"slots" validate:"dive"`
}

// ProviderService defines provider and slot operations.
type ProviderService interface {
	CreateProvider(ctx context.Context, req CreateProviderRequest) (*models.Provider, error)
	ListProviders(ctx context.Context) ([]models.Provider, error)
	ListSlots(ctx context.Context, providerID string) ([]models.Slot, error)
	AddSlots(ctx context.Context, providerID string, req AddSlotsRequest) error
	ReplaceSlots(ctx context.Context, providerID string, req ReplaceSlotsRequest) error
}

type providerService struct {
	repo             repository.ProviderRepository
	rejectDuplicates bool
}

// NewProviderService creates a new ProviderService instance. With
// rejectDuplicates a provider never holds two slots with the same date and
// time.
func NewProviderService(repo repository.ProviderRepository, rejectDuplicates bool) ProviderService {
	return &providerService{repo: repo, rejectDuplicates: rejectDuplicates}
}

func (s *providerService) CreateProvider(ctx context.Context, req CreateProviderRequest) (*models.Provider, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	_, err := s.repo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: provider %s", ErrConflict, req.Email)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	provider := &models.Provider{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		Specialization: req.Specialization,
		Slots:          []models.Slot{},
	}
	if err := s.repo.Create(ctx, provider); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: provider %s", ErrConflict, req.Email)
		}
		return nil, err
	}
	return provider, nil
}

func (s *providerService) ListProviders(ctx context.Context) ([]models.Provider, error) {
	return s.repo.List(ctx)
}

func (s *providerService) ListSlots(ctx context.Context, providerID string) ([]models.Slot, error) {
	slots, err := s.repo.ListSlots(ctx, providerID)
	if err != nil {
		return nil, providerError(providerID, err)
	}
	return slots, nil
}

func (s *providerService) AddSlots(ctx context.Context, providerID string, req AddSlotsRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	slots := make([]models.Slot, len(req.Slots))
	for i, in := range req.Slots {
		slots[i] = models.Slot{Date: in.Date, Time: in.Time}
	}
	if err := s.repo.AppendSlots(ctx, providerID, slots, s.rejectDuplicates); err != nil {
		return providerError(providerID, err)
	}
	return nil
}

func (s *providerService) ReplaceSlots(ctx context.Context, providerID string, req ReplaceSlotsRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	slots := make([]models.Slot, len(req.Slots))
	for i, in := range req.Slots {
		slot := models.Slot{Date: in.Date, Time: in.Time, Booked: in.Booked}
		if in.Booked {
			slot.UserID = in.UserID
		}
		slots[i] = slot
	}
	if err := s.repo.ReplaceSlots(ctx, providerID, slots, s.rejectDuplicates); err != nil {
		return providerError(providerID, err)
	}
	return nil
}

func providerError(providerID string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: provider %s", ErrNotFound, providerID)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
