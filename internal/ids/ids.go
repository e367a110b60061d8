// Package ids allocates short opaque tokens for games and tournaments.
package ids

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	KindGame       = "game"
	KindTournament = "tournament"

	tokenLen    = 8
	maxAttempts = 5
)

var ErrExhausted = errors.New("failed to allocate id")

// Reserver claims an id outside the process, e.g. store.Redis.
type Reserver interface {
	Reserve(ctx context.Context, kind, id string) (bool, error)
}

type Allocator struct {
	res  Reserver
	rand func() (string, error)
}

func NewAllocator(res Reserver) *Allocator {
	return &Allocator{res: res, rand: token}
}

// Next returns an id that taken reports as free and the Reserver accepted.
func (a *Allocator) Next(ctx context.Context, kind string, taken func(string) bool) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		id, err := a.rand()
		if err != nil {
			return "", err
		}
		if taken != nil && taken(id) {
			continue
		}
		if a.res != nil {
			ok, err := a.res.Reserve(ctx, kind, id)
			if err != nil {
				return "", fmt.Errorf("reserve %s id: %w", kind, err)
			}
			if !ok {
				continue
			}
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", ErrExhausted, kind)
}

// token returns tokenLen lowercase base36 characters.
// Bytes at or above the largest multiple of 36 are redrawn so every letter is equally likely.
func token() (string, error) {
	return tokenFrom(rand.Reader)
}

func tokenFrom(r io.Reader) (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	const limit = 256 - 256%len(letters)
	out := make([]byte, 0, tokenLen)
	buf := make([]byte, tokenLen)
	for len(out) < tokenLen {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, v := range buf {
			if int(v) >= limit {
				continue
			}
			out = append(out, letters[int(v)%len(letters)])
			if len(out) == tokenLen {
				break
			}
		}
	}
	return string(out), nil
}
