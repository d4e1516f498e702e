package runner

import (
	"sync"
	"sync/atomic"
	"time"
)

// monitor samples the resident memory of a child's process group, tracks the
// peak and, when enforcing, kills the group once the sum exceeds the ceiling.
type monitor struct {
	pgid     int
	limit    uint64
	enforce  bool
	kill     func()
	maxRSS   atomic.Uint64
	killed   atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func startMonitor(pgid int, limit uint64, enforce bool, interval time.Duration, kill func()) *monitor {
	m := &monitor{pgid: pgid, limit: limit, enforce: enforce && limit > 0, kill: kill, done: make(chan struct{})}
	if !pollSupported() {
		return m
	}
	m.wg.Add(1)
	go m.loop(interval)
	return m
}

func (m *monitor) loop(interval time.Duration) {
	defer m.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		m.sample()
		select {
		case <-m.done:
			return
		case <-t.C:
		}
	}
}

func (m *monitor) sample() {
	rss, err := groupResidentMemory(m.pgid)
	if err != nil {
		return
	}
	for {
		cur := m.maxRSS.Load()
		if rss <= cur || m.maxRSS.CompareAndSwap(cur, rss) {
			break
		}
	}
	if m.enforce && rss > m.limit && !m.killed.Swap(true) {
		m.kill()
	}
}

// stop ends sampling and waits for the sampler to return.
func (m *monitor) stop() {
	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

func (m *monitor) peak() uint64 { return m.maxRSS.Load() }

func (m *monitor) exceeded() bool { return m.killed.Load() }
