package npc

import (
	"sync"

	"github.com/zeusync/tickai/internal/core/bt"
)

// DefaultHistory is the memory capacity used when none is given.
const DefaultHistory = 128

// ringMemory keeps the most recent decision records in a fixed-size ring.
type ringMemory struct {
	mu    sync.RWMutex
	buf   []DecisionRecord
	start int
	size  int
}

// NewMemory creates a memory retaining up to capacity records.
func NewMemory(capacity int) Memory {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &ringMemory{buf: make([]DecisionRecord, capacity)}
}

func (m *ringMemory) AppendDecision(rec DecisionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.size < len(m.buf) {
		m.buf[(m.start+m.size)%len(m.buf)] = rec
		m.size++
		return
	}
	m.buf[m.start] = rec
	m.start = (m.start + 1) % len(m.buf)
}

func (m *ringMemory) History() []DecisionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DecisionRecord, m.size)
	for i := range m.size {
		out[i] = m.buf[(m.start+i)%len(m.buf)]
	}
	return out
}

func (m *ringMemory) Count(r bt.Result) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countLocked(r)
}

func (m *ringMemory) countLocked(r bt.Result) int {
	n := 0
	for i := range m.size {
		if m.buf[(m.start+i)%len(m.buf)].Result == r {
			n++
		}
	}
	return n
}

func (m *ringMemory) SuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.size == 0 {
		return 0
	}
	return float64(m.countLocked(bt.Success)) / float64(m.size)
}

func (m *ringMemory) Reset() {
	m.mu.Lock()
	m.start, m.size = 0, 0
	m.mu.Unlock()
}
