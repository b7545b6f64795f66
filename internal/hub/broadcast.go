package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/soar/padmapper/internal/engine"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

func errUnknownController(c int) error {
	return fmt.Errorf("controller %d is not configured", c)
}

// Broadcaster receives engine snapshots and broadcasts them to the hub as
// full and delta messages.
type Broadcaster struct {
	hub   *Hub
	snaps chan []engine.Snapshot

	mu   sync.Mutex
	last map[int]frame // by 0-based controller
	seq  int64
}

func NewBroadcaster(h *Hub) *Broadcaster {
	return &Broadcaster{
		hub:   h,
		snaps: make(chan []engine.Snapshot, 1),
		last:  make(map[int]frame),
	}
}

// Publish hands over the snapshots of one tick. It never blocks; when the
// broadcaster lags only the newest tick is kept.
func (b *Broadcaster) Publish(snaps []engine.Snapshot) {
	for {
		select {
		case b.snaps <- snaps:
			return
		default:
		}
		select {
		case <-b.snaps:
		default:
		}
	}
}

// Run starts the broadcaster loop.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int
	for {
		select {
		case <-ctx.Done():
			return
		case snaps := <-b.snaps:
			full := deltaCount >= deltaCountSync
			if full {
				deltaCount = 0
			}
			deltaCount += b.apply(snaps, full)
		case <-ticker.C:
			b.syncAll()
		}
	}
}

// apply sends the messages of one tick and returns how many deltas went out.
func (b *Broadcaster) apply(snaps []engine.Snapshot, full bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	sent := 0
	seen := make(map[int]bool, len(snaps))
	for _, s := range snaps {
		seen[s.Controller] = true
		old := b.last[s.Controller]
		b.last[s.Controller] = frame{Snapshot: s, valid: true}
		if full || !old.valid {
			b.seq++
			st := NewControllerState(s)
			b.broadcast(NewFullMessage(b.seq, &st), s.Controller+1)
			continue
		}
		delta := ComputeDelta(old, s)
		if delta.IsEmpty() {
			continue
		}
		b.seq++
		sent++
		b.broadcast(NewDeltaMessage(b.seq, delta), s.Controller+1)
	}
	for c := range b.last {
		if !seen[c] {
			delete(b.last, c)
		}
	}
	return sent
}

func (b *Broadcaster) syncAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c, f := range b.last {
		b.seq++
		st := NewControllerState(f.Snapshot)
		b.broadcast(NewFullMessage(b.seq, &st), c+1)
	}
}

// broadcast must run with b.mu held.
func (b *Broadcaster) broadcast(msg *WSMessage, c int) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.hub.log.Error("marshal monitor message", "type", msg.Type, "err", err)
		return
	}
	b.hub.BroadcastToController(data, c)
}

// Known reports whether controller c (1-based) appeared in the last tick.
func (b *Broadcaster) Known(c int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.last[c-1]
	return ok
}

// States returns the last state of every controller, ordered by id.
func (b *Broadcaster) States() []ControllerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ControllerState, 0, len(b.last))
	for _, f := range b.last {
		out = append(out, NewControllerState(f.Snapshot))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Controller < out[j].Controller })
	return out
}

// SendInitialState sends the current full state of the watched controller
// to a client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	f, ok := b.last[c.Controller()-1]
	if !ok {
		b.mu.Unlock()
		return
	}
	b.seq++
	st := NewControllerState(f.Snapshot)
	msg := NewFullMessage(b.seq, &st)
	b.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		b.hub.log.Error("marshal initial state", "err", err)
		return
	}
	b.hub.Deliver(c, data)
}
