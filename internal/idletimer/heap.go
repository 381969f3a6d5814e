// Package idletimer schedules per-connection idle-timeout callbacks using a
// min-heap ordered by expiry, the same scheduling shape this lineage already
// uses for its own delayed-task processing, repurposed here to reap FTP
// connections that have gone quiet.
package idletimer

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

// ErrManagerStopped is returned by Schedule after Stop has been called.
var ErrManagerStopped = errors.New("idletimer: manager is stopped")

// task represents a connection's scheduled idle-timeout callback.
type task struct {
	id       string
	expiryAt time.Time
	callback func()
	index    int
}

type taskHeap []*task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].expiryAt.Before(h[j].expiryAt) }
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	n := len(*h)
	t := x.(*task)
	t.index = n
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Manager schedules and fires idle-timeout callbacks. Each fired callback
// runs in its own goroutine, so a slow callback never delays the scheduler.
type Manager struct {
	mu      sync.Mutex
	heap    taskHeap
	tasks   map[string]*task
	wakeup  chan struct{}
	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// NewManager creates an idle-timer manager whose scheduler loop is not yet
// running. Schedule already accepts callbacks; call Start to begin firing
// them.
func NewManager() *Manager {
	m := &Manager{
		tasks:  make(map[string]*task),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
	heap.Init(&m.heap)
	return m
}

// Start launches the scheduler loop.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop halts the scheduler; pending, unfired callbacks are discarded.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
}

// Schedule arms (or re-arms) the idle-timeout callback for id, firing at
// expiryAt. Scheduling an id that already has a pending callback replaces it.
func (m *Manager) Schedule(id string, expiryAt time.Time, callback func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrManagerStopped
	}

	if existing, ok := m.tasks[id]; ok {
		heap.Remove(&m.heap, existing.index)
		delete(m.tasks, id)
	}

	t := &task{id: id, expiryAt: expiryAt, callback: callback}
	heap.Push(&m.heap, t)
	m.tasks[id] = t

	if m.heap[0] == t {
		select {
		case m.wakeup <- struct{}{}:
		default:
		}
	}

	return nil
}

// Cancel disarms the scheduled callback for id, if any. Returns false if no
// callback was pending.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return false
	}
	heap.Remove(&m.heap, t.index)
	delete(m.tasks, id)
	return true
}

func (m *Manager) run() {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}

		var wait time.Duration
		if m.heap.Len() == 0 {
			wait = 24 * time.Hour
		} else {
			next := m.heap[0]
			wait = time.Until(next.expiryAt)
			if wait <= 0 {
				t := heap.Pop(&m.heap).(*task)
				delete(m.tasks, t.id)
				m.mu.Unlock()
				go t.callback()
				continue
			}
		}
		m.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-m.wakeup:
			timer.Stop()
		case <-m.stopCh:
			timer.Stop()
			return
		}
	}
}

// Stats summarizes the scheduler's state.
type Stats struct {
	Scheduled int
}

// Stats returns the current number of pending callbacks.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Scheduled: len(m.tasks)}
}
