package bot

import (
	"sync"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/calculator"
)

// SessionStore keeps in-flight dialogues keyed by participant.
type SessionStore interface {
	Get(participantID int64) (Session, bool)
	Put(participantID int64, s Session)
	Delete(participantID int64)
}

// HistoryEntry is a finished calculation as remembered by the bot.
type HistoryEntry struct {
	Request     calculator.Request
	TotalWater  float64
	TotalPeople int
	Local       bool
	At          time.Time
}

// HistoryStore keeps a bounded list of recent results per participant.
type HistoryStore interface {
	// Append adds e, evicting the oldest entries beyond capacity.
	Append(participantID int64, e HistoryEntry)
	// Recent returns the entries newest first.
	Recent(participantID int64) []HistoryEntry
	// EvictOldest drops the oldest entry and reports whether there was one.
	EvictOldest(participantID int64) bool
	Clear(participantID int64)
}

// MemorySessionStore is process-local; concurrent writes for one participant
// are last-write-wins.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]Session)}
}

func (m *MemorySessionStore) Get(participantID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[participantID]
	return s, ok
}

func (m *MemorySessionStore) Put(participantID int64, s Session) {
	m.mu.Lock()
	m.sessions[participantID] = s
	m.mu.Unlock()
}

func (m *MemorySessionStore) Delete(participantID int64) {
	m.mu.Lock()
	delete(m.sessions, participantID)
	m.mu.Unlock()
}

const DefaultHistorySize = 5

// MemoryHistoryStore loses everything on restart.
type MemoryHistoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  map[int64][]HistoryEntry // oldest first
}

func NewMemoryHistoryStore(capacity int) *MemoryHistoryStore {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &MemoryHistoryStore{capacity: capacity, entries: make(map[int64][]HistoryEntry)}
}

func (m *MemoryHistoryStore) Append(participantID int64, e HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.entries[participantID], e)
	for len(list) > m.capacity {
		list = list[1:]
	}
	m.entries[participantID] = list
}

func (m *MemoryHistoryStore) Recent(participantID int64) []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[participantID]
	out := make([]HistoryEntry, len(list))
	for i, e := range list {
		out[len(list)-1-i] = e
	}
	return out
}

func (m *MemoryHistoryStore) EvictOldest(participantID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[participantID]
	if len(list) == 0 {
		return false
	}
	if len(list) == 1 {
		delete(m.entries, participantID)
		return true
	}
	m.entries[participantID] = list[1:]
	return true
}

func (m *MemoryHistoryStore) Clear(participantID int64) {
	m.mu.Lock()
	delete(m.entries, participantID)
	m.mu.Unlock()
}
