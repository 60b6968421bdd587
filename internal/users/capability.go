package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
)

// CapabilityOf reports what an identity may administer. Inactive users hold no capability.
func CapabilityOf(user *models.User) enums.Capability {
	if user == nil || !user.IsActive {
		return enums.CapabilityNone
	}
	return enums.CapabilityFor(user.UserType)
}

// Authorize loads the actor and requires the given capability.
func Authorize(ctx context.Context, repo Repository, actorID uuid.UUID, required enums.Capability) (*models.User, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor required")
	}
	actor, err := repo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load actor")
	}
	if CapabilityOf(actor) != required {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only super admins and financial managers can manage commissions")
	}
	return actor, nil
}
