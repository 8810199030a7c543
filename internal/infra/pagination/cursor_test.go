package pagination_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/janj3143/careertrojan-bridge/internal/infra/pagination"
)

func TestCursorRoundTrip(t *testing.T) {
	sentAt := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	id := uuid.New()

	cursor := pagination.Encode(sentAt, id)
	gotAt, gotID, err := pagination.Decode(cursor)
	if err != nil {
		t.Fatal(err)
	}
	if !gotAt.Equal(sentAt) {
		t.Fatalf("sent at: got %v, want %v", gotAt, sentAt)
	}
	if gotID != id {
		t.Fatalf("id: got %s, want %s", gotID, id)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not base64 !!",
		"bm8gc2VwYXJhdG9y",      // "no separator"
		"LTF8bm90LWEtdXVpZA",    // "-1|not-a-uuid"
		"YWJjfGFsc28tbm90LXV1aWQ", // "abc|also-not-uuid"
	}
	for _, c := range cases {
		if _, _, err := pagination.Decode(c); !errors.Is(err, pagination.ErrInvalidCursor) {
			t.Fatalf("Decode(%q): got %v, want ErrInvalidCursor", c, err)
		}
	}
}

func TestDecodeRejectsNegativeTimestamp(t *testing.T) {
	id := uuid.New()
	cursor := pagination.Encode(time.Unix(0, -1), id)
	if _, _, err := pagination.Decode(cursor); !errors.Is(err, pagination.ErrInvalidCursor) {
		t.Fatalf("got %v, want ErrInvalidCursor", err)
	}
}
