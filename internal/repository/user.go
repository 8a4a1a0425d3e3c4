package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, email, role string) error
}

type userRepository struct {
	store
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB, timeout time.Duration) UserRepository {
	return &userRepository{store: newStore(db, timeout)}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to find user by email %s: %w", email, translate(err))
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to find user by id %s: %w", id, translate(err))
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	db, cancel := r.session(ctx)
	defer cancel()

	if err := db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var users []models.User
	if err := db.Order("created_at, id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", translate(err))
	}
	return users, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, email, role string) error {
	db, cancel := r.session(ctx)
	defer cancel()

	res := db.Model(&models.User{}).Where("email = ?", email).Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("failed to update role for %s: %w", email, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update role for %s: %w", email, ErrNotFound)
	}
	return nil
}
