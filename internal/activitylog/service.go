package activitylog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
)

// Entry is one audit record to append.
type Entry struct {
	ActorID    *uuid.UUID
	Type       enums.ActivityType
	ObjectType string
	ObjectID   *uuid.UUID
	Details    map[string]any
}

// Sink appends audit entries. Failures are logged and never surface to callers.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the audit sink.
func NewService(repo Repository, logg *logger.Logger) (Sink, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity log repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) {
	if err := s.record(ctx, entry); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"activity_type": entry.Type,
			"object_type":   entry.ObjectType,
			"error":         err.Error(),
		})
		s.logg.Warn(logCtx, "failed to record activity log")
	}
}

func (s *service) record(ctx context.Context, entry Entry) error {
	if !entry.Type.IsValid() {
		return fmt.Errorf("invalid activity type %q", entry.Type)
	}
	if entry.ObjectType == "" {
		return fmt.Errorf("object type required")
	}

	row := &models.ActivityLog{
		UserID:       entry.ActorID,
		ActivityType: entry.Type,
		ObjectType:   entry.ObjectType,
		ObjectID:     entry.ObjectID,
	}
	if len(entry.Details) > 0 {
		payload, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		row.Details = payload
	}
	return s.repo.Create(ctx, row)
}
