package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/internal/db"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/validation"
)

const minPasswordLength = 8

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// UserService manages staff accounts and their profiles.
type UserService struct {
	db *gorm.DB
}

func NewUserService(gdb *gorm.DB) *UserService { return &UserService{db: gdb} }

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Signup creates an account. The first account gets the admin profile,
// later ones the cashier profile.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	if in.Email != "" {
		validation.Email("email", in.Email, v)
	}
	validation.Required("password", in.Password, v)
	if in.Password != "" && len(in.Password) < minPasswordLength {
		v["password"] = "too_short"
	}
	validation.MaxLen("name", in.Name, 255, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := models.User{Email: in.Email, Name: in.Name, Password: hash}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
		if err := tx.Model(&models.User{}).Count(&n).Error; err != nil {
			return err
		}
		name := db.ProfileCashier
		if n == 0 {
			name = db.ProfileAdmin
		}
		var p models.Profile
		if err := tx.Where("name = ?", name).Limit(1).Find(&p).Error; err != nil {
			return err
		}
		if p.ID != 0 {
			u.ProfileID = &p.ID
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("user signed up", zap.Uint("user_id", u.ID))
	return &u, nil
}

// Authenticate checks the credentials. Unknown emails, wrong passwords and
// disabled accounts all fail with ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Disabled || !auth.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// Get loads a user with profile and permissions.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Profile.Permissions").First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Active reports whether id names an enabled account.
func (s *UserService) Active(ctx context.Context, id uint) bool {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ? AND disabled = ?", id, false).Count(&n).Error
	return err == nil && n > 0
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := s.db.WithContext(ctx).Preload("Profile").Order("id ASC").Find(&out).Error
	return out, err
}

func (s *UserService) Profiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := s.db.WithContext(ctx).Preload("Permissions").Order("name ASC").Find(&out).Error
	return out, err
}

// AssignProfile sets the user's profile; profileID 0 removes it.
func (s *UserService) AssignProfile(ctx context.Context, userID, profileID uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, userID).Error; err != nil {
			return notFound(err)
		}
		var pid *uint
		if profileID != 0 {
			if err := tx.Select("id").First(&models.Profile{}, profileID).Error; err != nil {
				return notFound(err)
			}
			pid = &profileID
		}
		u.ProfileID = pid
		return tx.Model(&u).Update("profile_id", pid).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("profile assigned", zap.Uint("user_id", userID), zap.Uint("profile_id", profileID))
	return s.Get(ctx, userID)
}

// SetDisabled enables or disables an account.
func (s *UserService) SetDisabled(ctx context.Context, userID uint, disabled bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("disabled", disabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
