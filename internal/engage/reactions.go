package engage

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultReactionTTL is how long a reaction stays on screen.
const DefaultReactionTTL = 4 * time.Second

// Reaction is one displayed reaction instance. The same source sending the
// same emoji twice produces two instances with independent lifetimes.
type Reaction struct {
	ID                 string
	SourceConnectionID string
	Emoji              string
}

// Board holds the reactions currently on display. Every added reaction is
// scheduled for removal after the board's TTL, tracked per instance, so
// overlapping reactions never cancel each other early. Nothing here is
// persisted; a late joiner starts with an empty board.
type Board struct {
	mu       sync.Mutex
	ttl      time.Duration
	active   map[string]Reaction
	timers   map[string]*time.Timer
	onChange func()
	closed   bool
}

// NewBoard creates a board with the given display window; zero means
// DefaultReactionTTL.
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultReactionTTL
	}
	return &Board{
		ttl:    ttl,
		active: make(map[string]Reaction),
		timers: make(map[string]*time.Timer),
	}
}

// OnChange registers a callback invoked after every add or expiry.
func (b *Board) OnChange(f func()) {
	b.mu.Lock()
	b.onChange = f
	b.mu.Unlock()
}

// Add displays a reaction and schedules its removal. It returns the display
// instance.
func (b *Board) Add(sourceConnectionID, emoji string) Reaction {
	r := Reaction{
		ID:                 uuid.NewString(),
		SourceConnectionID: sourceConnectionID,
		Emoji:              emoji,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return r
	}
	b.active[r.ID] = r
	b.timers[r.ID] = time.AfterFunc(b.ttl, func() { b.expire(r.ID) })
	onChange := b.onChange
	b.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return r
}

func (b *Board) expire(id string) {
	b.mu.Lock()
	delete(b.active, id)
	delete(b.timers, id)
	onChange := b.onChange
	b.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Active returns the reactions currently on display.
func (b *Board) Active() []Reaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Reaction, 0, len(b.active))
	for _, r := range b.active {
		out = append(out, r)
	}
	return out
}

// Len reports how many reactions are on display.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active)
}

// Close stops all pending expiry timers.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
}
