package vendors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
)

// EnsureProfile loads the vendor profile for user, creating a placeholder bronze
// profile when the vendor never completed onboarding.
func EnsureProfile(ctx context.Context, repo Repository, user *models.User) (*models.VendorProfile, error) {
	if user == nil {
		return nil, fmt.Errorf("user required")
	}
	profile, err := repo.FindByUserID(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = &models.VendorProfile{
		UserID:                     user.ID,
		BusinessName:               fmt.Sprintf("%s's Business", user.Username),
		BusinessRegistrationNumber: fmt.Sprintf("AUTO-%s", user.ID),
		Classification:             enums.VendorClassificationBronze,
	}
	if err := repo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
