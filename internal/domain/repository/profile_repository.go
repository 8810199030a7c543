package repository

import (
	"context"
	"time"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

type ProfileRepository interface {
	// Upsert merges the non-empty fields of p into the user's snapshot row,
	// creating it when missing. LastSync is always advanced.
	Upsert(ctx context.Context, p *entity.UserPortalProfile) error
	GetByUserID(ctx context.Context, userID string) (entity.UserPortalProfile, error)
	SetProcessingStatus(ctx context.Context, userID, status string, at time.Time) error
}

type StatusRepository interface {
	GetByUserID(ctx context.Context, userID string) (entity.IntegrationStatus, error)
	// TouchSync records a successful sync toward the given portal.
	TouchSync(ctx context.Context, userID string, portal entity.Portal, at time.Time) error
	BumpSyncErrors(ctx context.Context, userID string, at time.Time) error
	BumpFailedEvents(ctx context.Context, userID string, at time.Time) error
}
