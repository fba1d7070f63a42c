package policy

import (
	"context"

	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/gate"
	"github.com/diewo77/go-stockpos/internal/models"
)

// DBProfileResolver loads a user's profile and permissions from the
// database.
type DBProfileResolver struct {
	DB *gorm.DB
}

func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve returns nil without error when the user has no profile. Disabled
// accounts resolve to no profile as well.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Preload("Profile.Permissions").First(&user, userID).Error; err != nil {
		return nil, err
	}
	if user.Profile == nil || user.Disabled {
		return nil, nil
	}
	perms := make([]gate.Permission, 0, len(user.Profile.Permissions))
	for _, p := range user.Profile.Permissions {
		perms = append(perms, gate.NewPermission(p.ResourceType, gate.Action(p.Action)))
	}
	return gate.NewStaticProfile(user.Profile.ID, user.Profile.Name, perms...), nil
}
