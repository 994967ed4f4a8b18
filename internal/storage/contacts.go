package storage

import (
	"context"

	"gorm.io/gorm"

	"bizdesk-service/internal/model"
)

func (s *GormStore) ListContacts(ctx context.Context) ([]model.Contact, error) {
	return list[model.Contact](ctx, s, "list contacts", nil)
}

func (s *GormStore) GetContact(ctx context.Context, id uint) (*model.Contact, error) {
	return get[model.Contact](ctx, s, "get contact", id)
}

func (s *GormStore) CreateContact(ctx context.Context, c *model.Contact) error {
	return create(ctx, s, "create contact", c)
}

func (s *GormStore) UpdateContact(ctx context.Context, id uint, patch model.Patch) (*model.Contact, error) {
	return update[model.Contact](ctx, s, "update contact", id, patch)
}

// DeleteContact fails with ErrConflict while orders or deliveries still
// reference the contact.
func (s *GormStore) DeleteContact(ctx context.Context, id uint) error {
	return remove[model.Contact](ctx, s, "delete contact", id)
}

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	return create(ctx, s, "create user", u)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return get[model.User](ctx, s, "get user", id)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.run(ctx, "get user by username", "query", func(db *gorm.DB) error {
		return db.Where("username = ?", username).First(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) UpdateUserPassword(ctx context.Context, id uint, hash string) error {
	return s.run(ctx, "update user password", "update", func(db *gorm.DB) error {
		res := db.Model(&model.User{ID: id}).Update("password", hash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
