package testutils

import (
	"sync"
	"time"
)

// MockClock is a manually advanced clock for deterministic expiry and
// timestamp tests.
type MockClock struct {
	Mu          sync.Mutex
	CurrentTime time.Time
}

func NewMockClock(start time.Time) *MockClock {
	return &MockClock{CurrentTime: start}
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) Advance(d time.Duration) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.CurrentTime = m.CurrentTime.Add(d)
}

// MockRand returns queued values cyclically, or the fixed fallbacks when
// no queue is set.
type MockRand struct {
	Mu       sync.Mutex
	Floats   []float64
	Ints     []int
	ValFloat float64
	ValInt   int
	fIdx     int
	iIdx     int
}

func (m *MockRand) Float64() float64 {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Floats) == 0 {
		return m.ValFloat
	}
	v := m.Floats[m.fIdx%len(m.Floats)]
	m.fIdx++
	return v
}

func (m *MockRand) Intn(n int) int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Ints) == 0 {
		return m.ValInt % n
	}
	v := m.Ints[m.iIdx%len(m.Ints)] % n
	m.iIdx++
	return v
}
