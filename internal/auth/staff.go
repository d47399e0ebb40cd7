package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bardev-backend/internal/models"
	"bardev-backend/internal/realtime"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both an unknown role/user and a wrong PIN;
// callers must not be able to tell them apart.
var ErrInvalidCredentials = errors.New("PIN o Rol incorrectos")

var ErrInvalidUser = errors.New("usuario inválido")

type Staff struct {
	db       *gorm.DB
	notifier realtime.Notifier
}

func NewStaff(db *gorm.DB, notifier realtime.Notifier) *Staff {
	if notifier == nil {
		notifier = realtime.Nop
	}
	return &Staff{db: db, notifier: notifier}
}

func (s *Staff) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error
	return users, err
}

func (s *Staff) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PinLogin finds the user of the given role whose PIN matches.
func (s *Staff) PinLogin(ctx context.Context, role models.UserRole, pin string) (*models.User, error) {
	if !role.Valid() || pin == "" {
		return nil, ErrInvalidCredentials
	}

	var candidates []models.User
	if err := s.db.WithContext(ctx).Where("role = ?", role).Find(&candidates).Error; err != nil {
		return nil, err
	}
	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].PinHash), []byte(pin)) == nil {
			return &candidates[i], nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (s *Staff) Create(ctx context.Context, u *models.User, pin string) error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" || !u.Role.Valid() || pin == "" {
		return fmt.Errorf("%w: nombre, rol y PIN son obligatorios", ErrInvalidUser)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("no se pudo hashear el PIN: %w", err)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.PinHash = string(hash)

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return err
	}
	s.notifier.Publish(models.CollectionUsers)
	return nil
}

type UserUpdate struct {
	Name  *string
	Role  *models.UserRole
	Email *string
	PIN   *string
}

// Update patches the given fields; an unknown id returns nil, nil.
func (s *Staff) Update(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: el nombre no puede estar vacío", ErrInvalidUser)
		}
		u.Name = name
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, fmt.Errorf("%w: rol desconocido", ErrInvalidUser)
		}
		u.Role = *upd.Role
	}
	if upd.Email != nil {
		u.Email = upd.Email
	}
	if upd.PIN != nil && *upd.PIN != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("no se pudo hashear el PIN: %w", err)
		}
		u.PinHash = string(hash)
	}

	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, err
	}
	s.notifier.Publish(models.CollectionUsers)
	return u, nil
}

func (s *Staff) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.notifier.Publish(models.CollectionUsers)
	}
	return nil
}
