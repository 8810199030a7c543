package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/janj3143/careertrojan-bridge/internal/config"
	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

func TestNewNATSDisabledWithoutURL(t *testing.T) {
	client, err := NewNATS(context.Background(), config.NATS{})
	if err != nil {
		t.Fatal(err)
	}
	if client != nil {
		t.Fatal("empty url must disable the mirror")
	}
}

func TestNotificationSubjectPerPortal(t *testing.T) {
	c := &NATSClient{cfg: config.NATS{SubjectPrefix: "bridge.notifications"}}
	if got := c.NotificationSubject(entity.PortalAdmin); got != "bridge.notifications.admin" {
		t.Fatalf("admin subject: got %q", got)
	}
	if got := c.NotificationSubject(entity.PortalUser); got != "bridge.notifications.user" {
		t.Fatalf("user subject: got %q", got)
	}
}

func TestConsumerDurablePerPortal(t *testing.T) {
	c := &NATSClient{cfg: config.NATS{ConsumerDurable: "bridge-relay"}}
	if got := c.ConsumerDurable(entity.PortalUser); got != "bridge-relay-user" {
		t.Fatalf("durable: got %q", got)
	}
}

func TestStreamSubjectsIncludeDLQ(t *testing.T) {
	cfg := config.NATS{SubjectPrefix: "bridge.notifications", DLQSubject: "bridge.notifications.dlq"}
	subjects := streamSubjects(cfg)
	if len(subjects) != 3 {
		t.Fatalf("subjects: got %v", subjects)
	}

	cfg.DLQSubject = ""
	if got := streamSubjects(cfg); len(got) != 2 {
		t.Fatalf("subjects without dlq: got %v", got)
	}
}

func TestBackoffForAttempt(t *testing.T) {
	backoff := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}

	cases := []struct {
		delivered uint64
		want      time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 5 * time.Second},
		{3, 30 * time.Second},
		{99, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := BackoffForAttempt(backoff, tc.delivered); got != tc.want {
			t.Fatalf("delivered=%d: got %s, want %s", tc.delivered, got, tc.want)
		}
	}

	if got := BackoffForAttempt(nil, 3); got != 0 {
		t.Fatalf("empty backoff: got %s, want 0", got)
	}
}

func TestSameSubjectsIgnoresOrder(t *testing.T) {
	a := []string{"x.admin", "x.user", "x.dlq"}
	b := []string{"x.dlq", "x.admin", "x.user"}
	if !sameSubjects(a, b) {
		t.Fatal("order must not matter")
	}
	if sameSubjects(a, []string{"x.admin", "x.user"}) {
		t.Fatal("different sets reported equal")
	}
	if sameSubjects([]string{"x.a", "x.a"}, []string{"x.a", "x.b"}) {
		t.Fatal("multiset mismatch reported equal")
	}
}

func TestSameBackoff(t *testing.T) {
	a := []time.Duration{time.Second, time.Minute}
	if !sameBackoff(a, []time.Duration{time.Second, time.Minute}) {
		t.Fatal("equal slices reported different")
	}
	if sameBackoff(a, []time.Duration{time.Minute, time.Second}) {
		t.Fatal("backoff order matters")
	}
	if sameBackoff(a, nil) {
		t.Fatal("different lengths reported equal")
	}
}
