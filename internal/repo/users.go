package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "repo.UserByUsername"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "repo.UserByID"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *GormRepo) Users(ctx context.Context) ([]models.User, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	users := make([]models.User, 0)
	if err := db.Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("repo.Users: %w", err)
	}
	return users, nil
}

// CreateUser inserts u unless the username is taken.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	const op = "repo.CreateUser"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	tx := db.Where("username = ?", u.Username).FirstOrCreate(u)
	if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if tx.Error != nil {
		return fmt.Errorf("%s: %w", op, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	return nil
}

func (r *GormRepo) UpdateUserRole(ctx context.Context, id, role string) (*models.User, error) {
	const op = "repo.UpdateUserRole"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fmt.Errorf("%s: reload: %w", op, err)
	}
	return &user, nil
}

func (r *GormRepo) DeleteUser(ctx context.Context, id string) error {
	const op = "repo.DeleteUser"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

func (r *GormRepo) CreateRole(ctx context.Context, role *models.Role) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if err := db.Create(role).Error; err != nil {
		return fmt.Errorf("repo.CreateRole: %w", err)
	}
	return nil
}

func (r *GormRepo) DeleteRole(ctx context.Context, id string) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := db.Where("id = ?", id).Delete(&models.Role{}).Error; err != nil {
		return fmt.Errorf("repo.DeleteRole: %w", err)
	}
	return nil
}

// FindRole returns any role row registered under name.
func (r *GormRepo) FindRole(ctx context.Context, name string) (*models.Role, error) {
	const op = "repo.FindRole"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var role models.Role
	if err := db.Where("role_name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &role, nil
}
