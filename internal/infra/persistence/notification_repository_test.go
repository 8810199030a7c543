package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/domain/repository"
	"github.com/janj3143/careertrojan-bridge/internal/infra/persistence"
)

func newNotification(userID string, portal entity.Portal, sentAt time.Time) *entity.PortalNotification {
	return &entity.PortalNotification{
		NotificationID:   uuid.New(),
		UserID:           userID,
		NotificationType: entity.NotificationProcessingComplete,
		Title:            "Document processing complete",
		Message:          "Your documents are ready.",
		Payload:          datatypes.JSON(`{}`),
		Priority:         entity.PriorityHigh,
		PortalTarget:     portal,
		SentAt:           sentAt,
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := persistence.NewNotificationRepository(db)
	ctx := context.Background()

	n := newNotification("user-1", entity.PortalUser, time.Now().UTC())
	if err := repo.Insert(ctx, n); err != nil {
		t.Fatal(err)
	}

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.MarkRead(ctx, n.NotificationID, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkRead(ctx, n.NotificationID, first.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, n.NotificationID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ReadAt == nil || !got.ReadAt.Equal(first) {
		t.Fatalf("read at: got %v, want %v", got.ReadAt, first)
	}

	if err := repo.MarkRead(ctx, uuid.New(), first); !errors.Is(err, repository.ErrNotificationNotFound) {
		t.Fatalf("got %v, want ErrNotificationNotFound", err)
	}
}

func TestInsertIgnoreDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := persistence.NewNotificationRepository(db)
	ctx := context.Background()

	n := newNotification("user-1", entity.PortalUser, time.Now().UTC())
	inserted, err := repo.InsertIgnoreDuplicate(ctx, n)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("first insert must report inserted")
	}

	redelivered := *n
	redelivered.Message = "changed on redelivery"
	inserted, err = repo.InsertIgnoreDuplicate(ctx, &redelivered)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Fatal("duplicate insert must report not inserted")
	}

	got, err := repo.GetByID(ctx, n.NotificationID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Message != n.Message {
		t.Fatal("duplicate insert must not overwrite the original row")
	}
}

func TestListPagesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := persistence.NewNotificationRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	var all []*entity.PortalNotification
	for i := 0; i < 5; i++ {
		n := newNotification("user-1", entity.PortalUser, base.Add(time.Duration(i)*time.Minute))
		all = append(all, n)
		if err := repo.Insert(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	// Noise for other users and portals must never appear.
	if err := repo.Insert(ctx, newNotification("user-2", entity.PortalUser, base)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(ctx, newNotification("user-1", entity.PortalAdmin, base)); err != nil {
		t.Fatal(err)
	}

	page, err := repo.List(ctx, repository.NotificationFilter{
		UserID: "user-1",
		Portal: entity.PortalUser,
		Limit:  2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("page: got %d rows, want 2", len(page))
	}
	if page[0].NotificationID != all[4].NotificationID || page[1].NotificationID != all[3].NotificationID {
		t.Fatal("page must be newest-first")
	}

	last := page[len(page)-1]
	rest, err := repo.List(ctx, repository.NotificationFilter{
		UserID:   "user-1",
		Portal:   entity.PortalUser,
		Limit:    10,
		Before:   last.SentAt,
		BeforeID: last.NotificationID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 3 {
		t.Fatalf("rest: got %d rows, want 3", len(rest))
	}
	if rest[0].NotificationID != all[2].NotificationID {
		t.Fatal("cursor must continue exactly after the previous page")
	}
}

func TestListUnreadOnly(t *testing.T) {
	db := newTestDB(t)
	repo := persistence.NewNotificationRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	read := newNotification("user-1", entity.PortalUser, base)
	unread := newNotification("user-1", entity.PortalUser, base.Add(time.Minute))
	for _, n := range []*entity.PortalNotification{read, unread} {
		if err := repo.Insert(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.MarkRead(ctx, read.NotificationID, base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.List(ctx, repository.NotificationFilter{
		UserID:     "user-1",
		Portal:     entity.PortalUser,
		UnreadOnly: true,
		Limit:      10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].NotificationID != unread.NotificationID {
		t.Fatalf("unexpected unread page: %+v", got)
	}
}

func TestDeleteReadBeforeKeepsUnread(t *testing.T) {
	db := newTestDB(t)
	repo := persistence.NewNotificationRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	oldRead := newNotification("user-1", entity.PortalUser, base)
	oldUnread := newNotification("user-1", entity.PortalUser, base)
	recentRead := newNotification("user-1", entity.PortalUser, base.Add(48*time.Hour))
	for _, n := range []*entity.PortalNotification{oldRead, oldUnread, recentRead} {
		if err := repo.Insert(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []uuid.UUID{oldRead.NotificationID, recentRead.NotificationID} {
		if err := repo.MarkRead(ctx, id, base.Add(49*time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := repo.DeleteReadBefore(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted: got %d, want 1", deleted)
	}
	if _, err := repo.GetByID(ctx, oldUnread.NotificationID); err != nil {
		t.Fatal("unread notification must survive retention")
	}
	if _, err := repo.GetByID(ctx, recentRead.NotificationID); err != nil {
		t.Fatal("recent read notification must survive retention")
	}
}
