package ids

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/chess-hub/internal/store"
)

func TestTokenShape(t *testing.T) {
	id, err := token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(id) != tokenLen {
		t.Fatalf("expected %d chars, got %q", tokenLen, id)
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			t.Fatalf("unexpected rune %q in %q", r, id)
		}
	}
}

func TestTokenRedrawsBiasedBytes(t *testing.T) {
	// 252..255 would map onto 'a'..'d' a second time.
	src := []byte{252, 0, 253, 1, 254, 35, 255, 36, 71, 2, 3, 4, 9, 9, 9, 9}
	id, err := tokenFrom(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("tokenFrom: %v", err)
	}
	if id != "ab9a9cde" {
		t.Fatalf("expected ab9a9cde, got %q", id)
	}

	if _, err := tokenFrom(bytes.NewReader(bytes.Repeat([]byte{255}, tokenLen))); err == nil {
		t.Fatalf("expected error once the source runs dry")
	}
}

func TestTokenAlphabetCoverage(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 2000; i++ {
		id, err := token()
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		for _, r := range id {
			if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyz0123456789", r) {
				t.Fatalf("unexpected rune %q in %q", r, id)
			}
			seen[r] = true
		}
	}
	if len(seen) != 36 {
		t.Fatalf("expected all 36 characters over 16000 draws, saw %d", len(seen))
	}
}

func TestNextSkipsTakenAndReserved(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	_, _ = mem.Reserve(ctx, KindGame, "reserved")

	seq := []string{"local", "reserved", "fresh"}
	a := NewAllocator(mem)
	a.rand = func() (string, error) {
		id := seq[0]
		seq = seq[1:]
		return id, nil
	}
	id, err := a.Next(ctx, KindGame, func(s string) bool { return s == "local" })
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if id != "fresh" {
		t.Fatalf("expected fresh, got %q", id)
	}
}

func TestNextGivesUp(t *testing.T) {
	a := NewAllocator(nil)
	a.rand = func() (string, error) { return "same", nil }
	_, err := a.Next(context.Background(), KindTournament, func(string) bool { return true })
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestNextNeverRepeats(t *testing.T) {
	a := NewAllocator(store.NewMemory())
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := a.Next(context.Background(), KindGame, nil)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if seen[id] {
			t.Fatalf("id %q handed out twice", id)
		}
		seen[id] = true
	}
}
