// Package workerpool implements a fixed-size goroutine pool driven by a
// submit/await protocol: callers submit a job function plus an argument and
// receive a handle they can later await for the result. Shutdown is driven by
// a sentinel job rather than a close-and-drain channel, so that a worker
// blocked mid-job is never abandoned mid-task.
package workerpool

import (
	"errors"
	"sync"

	"github.com/smukkama/ftp-core/internal/corelog"
	"github.com/smukkama/ftp-core/internal/syncqueue"
)

// ErrPoolClosed is returned by Submit once Close has begun tearing the pool down.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// JobFunc is the function signature every submitted unit of work satisfies.
// WorkerInfo identifies which worker goroutine is executing it.
type JobFunc func(info WorkerInfo, arg any) (any, error)

// WorkerInfo is passed to every job so it can identify its executing worker,
// e.g. for log correlation.
type WorkerInfo struct {
	Index int
}

// Job is a single unit of work in flight through the pool.
type Job struct {
	fn       JobFunc
	arg      any
	shutdown bool
	done     chan struct{}

	result any
	err    error
}

// JobHandle is returned by Submit; pass it to Await exactly once.
type JobHandle struct {
	job *Job
}

// Pool owns a fixed number of worker goroutines pulling jobs off a shared
// queue, synchronized by a jobs-available counting semaphore implemented as
// a buffered channel.
type Pool struct {
	workers int
	log     *corelog.Logger

	mu        sync.Mutex
	queue     *syncqueue.Queue
	closed    bool
	available chan struct{}

	wg sync.WaitGroup
}

// New creates and starts a pool with the given number of worker goroutines.
// workers must be >= 1. log may be nil, in which case workers run silently.
func New(workers int, log *corelog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		workers:   workers,
		log:       log,
		queue:     syncqueue.New(),
		available: make(chan struct{}, 1<<20),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.runWorker(WorkerInfo{Index: i})
	}

	return p
}

// Submit enqueues fn(arg) for execution by the next free worker and returns a
// handle the caller must eventually Await. Returns ErrPoolClosed if the pool
// has begun shutting down.
func (p *Pool) Submit(fn JobFunc, arg any) (*JobHandle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	job := &Job{fn: fn, arg: arg, done: make(chan struct{})}
	p.queue.Push(job)
	p.mu.Unlock()

	p.available <- struct{}{}
	return &JobHandle{job: job}, nil
}

// Await blocks until the job behind handle has completed and returns its
// result. Awaiting the same handle twice is a caller error; the second call
// returns immediately with the same result again since the channel is
// already closed.
func Await(handle *JobHandle) (any, error) {
	<-handle.job.done
	return handle.job.result, handle.job.err
}

// Close marks the pool closed, so any later Submit returns ErrPoolClosed,
// then submits one shutdown sentinel per worker and waits for every worker to
// observe one and exit. Jobs queued before Close still run ahead of the
// sentinels; callers must await anything they submitted beforehand
// themselves.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	handles := make([]*JobHandle, 0, p.workers)
	for i := 0; i < p.workers; i++ {
		handles = append(handles, p.submitSentinel())
	}
	for _, h := range handles {
		Await(h)
	}

	p.wg.Wait()
}

func (p *Pool) submitSentinel() *JobHandle {
	p.mu.Lock()
	job := &Job{shutdown: true, done: make(chan struct{})}
	p.queue.Push(job)
	p.mu.Unlock()

	p.available <- struct{}{}
	return &JobHandle{job: job}
}

func (p *Pool) popJob() *Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Pop().(*Job)
}

func (p *Pool) runWorker(info WorkerInfo) {
	defer p.wg.Done()

	for range p.available {
		job := p.popJob()

		if job.shutdown {
			close(job.done)
			return
		}

		job.result, job.err = job.fn(info, job.arg)
		if job.err != nil && p.log != nil {
			corelog.ForWorker(p.log, info.Index).WithError(job.err).Warn("job returned an error")
		}
		close(job.done)
	}
}
