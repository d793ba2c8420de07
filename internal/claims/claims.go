package claims

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
)

// Provider resolves authorization claims for an identity at
// token-issue time.
type Provider interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// RoleProvider reads the role column of the users table. Unknown
// identities resolve to non-admin rather than an error.
type RoleProvider struct {
	DB *gorm.DB
}

func (p *RoleProvider) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := p.DB.WithContext(ctx).Select("role").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Role == "admin", nil
}
