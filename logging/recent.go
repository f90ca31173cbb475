package logging

import (
	"sync"
	"time"

	"github.com/yanet-platform/logsubsys/subsys"
)

type recentEntry struct {
	ts    time.Time
	sub   subsys.ID
	level int
	msg   string
	kv    []any
}

// recent is a bounded ring of the latest gathered-but-not-logged messages.
type recent struct {
	mu      sync.Mutex
	entries []recentEntry
	head    int
	size    int
}

func newRecent(capacity int) *recent {
	return &recent{
		entries: make([]recentEntry, capacity),
	}
}

func (m *recent) push(sub subsys.ID, level int, msg string, kv []any) {
	if len(m.entries) == 0 {
		return
	}

	e := recentEntry{ts: time.Now(), sub: sub, level: level, msg: msg, kv: kv}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[(m.head+m.size)%len(m.entries)] = e
	if m.size < len(m.entries) {
		m.size++
	} else {
		m.head = (m.head + 1) % len(m.entries)
	}
}

// drain returns buffered entries, oldest first, and empties the ring.
func (m *recent) drain() []recentEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]recentEntry, 0, m.size)
	for idx := range m.size {
		out = append(out, m.entries[(m.head+idx)%len(m.entries)])
	}

	clear(m.entries)
	m.head = 0
	m.size = 0

	return out
}

func (m *recent) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.size
}
