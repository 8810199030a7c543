package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/janj3143/careertrojan-bridge/internal/config"
	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/infra/persistence"
)

// Seed writes demo profiles and pending sync events. The events are left
// unprocessed on purpose: the next server start seeds its dispatch queue
// from them, which exercises the full pipeline end to end.
func Seed(ctx context.Context, cfg config.Config, count int) error {
	if count <= 0 {
		count = 10
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	conn, err := persistence.New(ctx, persistence.Config{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		DSN:             cfg.Database.DSN,
		BusyTimeout:     cfg.Database.BusyTimeout,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	pingCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	if err := conn.Ping(pingCtx); err != nil {
		return err
	}

	profiles := persistence.NewProfileRepository(conn)
	events := persistence.NewEventRepository(conn)

	baseTime := time.Now().UTC()
	for i := 0; i < count; i++ {
		userID := fmt.Sprintf("seed-%s", uuid.NewString())
		seedTime := baseTime.Add(time.Duration(i) * time.Microsecond)

		prefs, _ := json.Marshal(map[string]any{
			"email_notifications": i%2 == 0,
			"timezone":            faker.Timezone(),
		})
		profile := entity.UserPortalProfile{
			UserID:      userID,
			Email:       faker.Email(),
			Phone:       faker.Phonenumber(),
			Preferences: datatypes.JSON(prefs),
			LastSync:    seedTime,
		}
		if err := profiles.Upsert(ctx, &profile); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]any{
			"status":   "completed",
			"document": fmt.Sprintf("%s_resume.pdf", faker.Username()),
		})
		ev := entity.SyncEvent{
			UserID:       userID,
			EventType:    entity.EventProcessingStatus,
			Payload:      datatypes.JSON(payload),
			Priority:     entity.PriorityHigh,
			SourcePortal: entity.PortalAdmin,
			TargetPortal: entity.PortalUser,
			CreatedAt:    seedTime,
		}
		if err := events.Insert(ctx, &ev); err != nil {
			return err
		}
	}

	log.Infof("bootstrap: seeded %d profiles with pending events", count)
	return nil
}
