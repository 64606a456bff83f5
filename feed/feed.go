// Package feed produces the canonical, displayable message list for one
// vehicle by combining realtime pushes with polled REST history.
//
// Both sources land in a single identity-keyed store with one sorted
// projection, so the realtime view and the polled view can never diverge.
// Realtime-only entries carry a synthetic id until history supersedes them.
package feed

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fleetwatch/fleet-client/models"
	"github.com/fleetwatch/fleet-client/realtime"
)

type source int

const (
	sourceHistory source = iota
	sourceRealtime
)

// Entry is one displayable message. Provenance is empty for history
// entries and "You"/"Server" for realtime ones.
type Entry struct {
	models.Message
	Provenance string

	src           source
	correlationID string
	seq           int
}

// Display renders the entry the way the message list shows it.
func (e Entry) Display() string {
	if e.Provenance == "" {
		return e.Text
	}
	return e.Provenance + ": " + e.Text
}

// Feed is the unified message store for one vehicle channel.
type Feed struct {
	mu      sync.Mutex
	vehicle string
	entries map[string]Entry
	seq     int
	lastErr string
}

// New creates an empty feed for the given vehicle
func New(vehicle string) *Feed {
	return &Feed{
		vehicle: vehicle,
		entries: make(map[string]Entry),
	}
}

// ApplyHistory replaces all history-sourced entries with the given batch.
// The batch is a wholesale snapshot, not a diff; whichever batch is applied
// last wins, even if it was requested earlier (last-write-wins, the known
// risk of unserialized fetches). Realtime-only entries survive the replace
// until the batch carries their persisted copy, identified by matching text
// and timestamp; the server-id copy then supersedes the synthetic-id one.
func (f *Feed) ApplyHistory(batch []models.TruckMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, e := range f.entries {
		if e.src == sourceHistory {
			delete(f.entries, id)
		}
	}

	// everything left is realtime-sourced; index it by content so the
	// persisted copy can find its twin
	type key struct{ text, ts string }
	live := make(map[key]string, len(f.entries))
	for id, e := range f.entries {
		live[key{e.Text, e.Timestamp}] = id
	}

	for _, tm := range batch {
		for _, m := range tm.Messages {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			if m.OriginVehicle == "" {
				m.OriginVehicle = tm.TruckNumber
			}
			if _, dup := f.entries[m.ID]; dup {
				continue
			}
			seq := 0
			if rid, ok := live[key{m.Text, m.Timestamp}]; ok {
				seq = f.entries[rid].seq
				delete(f.entries, rid)
				delete(live, key{m.Text, m.Timestamp})
			}
			if seq == 0 {
				f.seq++
				seq = f.seq
			}
			f.entries[m.ID] = Entry{Message: m, src: sourceHistory, seq: seq}
		}
	}
	f.lastErr = ""
}

// ApplyRealtime folds one realtime message event into the store. A confirmed
// server echo replaces the optimistic local entry with the same correlation
// id instead of appending a duplicate.
func (f *Feed) ApplyRealtime(ev realtime.Event) {
	if ev.Kind != realtime.KindMessage {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	m := ev.Message
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	seq := 0
	if ev.Confirmed && ev.CorrelationID != "" {
		for id, e := range f.entries {
			if e.correlationID == ev.CorrelationID {
				seq = e.seq
				delete(f.entries, id)
				break
			}
		}
	}
	if seq == 0 {
		f.seq++
		seq = f.seq
	}

	f.entries[m.ID] = Entry{
		Message:       m,
		Provenance:    ev.Provenance,
		src:           sourceRealtime,
		correlationID: ev.CorrelationID,
		seq:           seq,
	}
}

// SetError records a fetch failure. Previously held messages are retained.
func (f *Feed) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = err.Error()
}

// Err returns the last fetch error as a user-facing string, empty when the
// most recent fetch succeeded.
func (f *Feed) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Vehicle returns the vehicle this feed tracks
func (f *Feed) Vehicle() string { return f.vehicle }

// Messages returns the projection: timestamp descending (newest first),
// ties broken by arrival order. ISO-8601 timestamps order lexicographically,
// so the string compare is the time compare.
func (f *Feed) Messages() []Entry {
	f.mu.Lock()
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// Lines renders the projection as display strings
func (f *Feed) Lines() []string {
	entries := f.Messages()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Display()
	}
	return lines
}

// Run consumes realtime events until done closes or the channel closes.
// It is the single consumer marshaling transport-produced events into the
// shared store. onMessage, when non-nil, observes each message-kind event
// after it has been folded in.
func (f *Feed) Run(done <-chan struct{}, events <-chan realtime.Event, onMessage func(realtime.Event)) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.ApplyRealtime(ev)
			if onMessage != nil && ev.Kind == realtime.KindMessage {
				onMessage(ev)
			}
		}
	}
}
