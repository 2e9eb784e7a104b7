package auth

import (
	"context"
	"errors"

	"easybus/internal/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	CreateUser(ctx context.Context, user *users.User) error
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// UpsertAdmin inserts the user or, on an email clash, overwrites its
	// password hash and role
	UpsertAdmin(ctx context.Context, user *users.User) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(ctx context.Context, user *users.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *repository) GetUserByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) findOne(ctx context.Context, query string, arg interface{}) (*users.User, error) {
	var user users.User
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&users.User{}).
		Where("email = ?", email).
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

func (r *repository) UpsertAdmin(ctx context.Context, user *users.User) error {
	user.Role = users.RoleAdmin
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password", "role", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return err
	}

	stored, err := r.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}
