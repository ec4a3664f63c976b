package roomstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store remembers which rooms this machine created, so a reconnecting client
// can claim host priority for them. It is a transient convenience cache, not
// an identity system: the server still runs its admission policy.
type Store struct {
	mu    sync.Mutex
	path  string
	rooms map[string]int64 // roomID -> creation unix millis
}

// OwnedRoom is one entry of the ownership cache.
type OwnedRoom struct {
	RoomID    string
	CreatedAt time.Time
}

// DefaultPath places the cache under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "meet", "owned-rooms.bin"), nil
}

// Open loads the cache at path, starting empty when the file does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, rooms: make(map[string]int64)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(data, &s.rooms); err != nil {
		// A corrupt cache only costs host priority; start over.
		s.rooms = make(map[string]int64)
	}
	return s, nil
}

// Add records a room we created and persists the cache.
func (s *Store) Add(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = time.Now().UnixMilli()
	return s.save()
}

// Remove forgets a room.
func (s *Store) Remove(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return s.save()
}

// Claims reports whether this machine created the given room.
func (s *Store) Claims(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}

// Owned lists the recorded rooms, most recently created first.
func (s *Store) Owned() []OwnedRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OwnedRoom, 0, len(s.rooms))
	for id, created := range s.rooms {
		out = append(out, OwnedRoom{RoomID: id, CreatedAt: time.UnixMilli(created)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// save writes the cache. Caller holds s.mu.
func (s *Store) save() error {
	data, err := msgpack.Marshal(s.rooms)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
