package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) outbound.UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, entity *user.User) error {
	model := UserToModel(entity)
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	entity.AssignID(model.ID)
	return nil
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, entity *user.User) error {
	model := UserToModel(entity)
	return conn(ctx, r.db).Model(&UserModel{ID: model.ID}).
		Select("Email", "Name", "EncryptedPassword", "Active", "Role", "Avatar", "UpdatedAt").
		Updates(model).Error
}

// Delete deletes a user. Owned recipes are kept without owner.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return conn(ctx, r.db).Delete(&UserModel{}, id).Error
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return r.take(conn(ctx, r.db).Where("id = ?", id))
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.take(conn(ctx, r.db).Where("email = ?", email))
}

// List lists users by email
func (r *UserRepository) List(ctx context.Context, filter outbound.ListFilter) ([]*user.User, error) {
	var models []UserModel
	err := paged(searchName(conn(ctx, r.db), "email", filter.Search), filter).
		Order("email").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(models))
	for i := range models {
		users = append(users, ModelToUser(&models[i]))
	}
	return users, nil
}

// Count counts users whose email matches the search
func (r *UserRepository) Count(ctx context.Context, filter outbound.ListFilter) (int64, error) {
	var count int64
	err := searchName(conn(ctx, r.db).Model(&UserModel{}), "email", filter.Search).Count(&count).Error
	return count, err
}

func (r *UserRepository) take(query *gorm.DB) (*user.User, error) {
	var model UserModel
	if err := query.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ModelToUser(&model), nil
}
