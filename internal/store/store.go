// Package store backs id reservation and the lobby mirror.
package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	idTTL            = 24 * time.Hour
	LobbyChannel     = "lobby"
	LobbySnapshotKey = "lobby:snapshot"
)

// Store reserves ids and mirrors lobby snapshots for outside observers.
type Store interface {
	// Reserve claims kind/id; false means it is already taken.
	Reserve(ctx context.Context, kind, id string) (bool, error)
	PublishLobby(ctx context.Context, payload []byte) error
	Close() error
}

func idKey(kind, id string) string {
	return "id:" + strings.TrimSpace(kind) + ":" + strings.TrimSpace(id)
}

// Memory keeps reservations for the process lifetime; ids are never handed out twice.
type Memory struct {
	mu   sync.Mutex
	ids  map[string]struct{}
	last []byte
}

func NewMemory() *Memory { return &Memory{ids: make(map[string]struct{})} }

func (m *Memory) Reserve(_ context.Context, kind, id string) (bool, error) {
	k := idKey(kind, id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[k]; ok {
		return false, nil
	}
	m.ids[k] = struct{}{}
	return true, nil
}

func (m *Memory) PublishLobby(_ context.Context, payload []byte) error {
	m.mu.Lock()
	m.last = append(m.last[:0], payload...)
	m.mu.Unlock()
	return nil
}

// LastLobby returns the most recent mirrored snapshot.
func (m *Memory) LastLobby() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.last...)
}

func (m *Memory) Close() error { return nil }
