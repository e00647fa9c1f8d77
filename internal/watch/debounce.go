// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// debouncer batches paths and hands them to fire once no new path has
// arrived for the delay. fire never runs concurrently with itself; a batch
// completing while fire is busy is retried after another delay.
type debouncer struct {
	delay   time.Duration
	fire    func([]string)
	logger  *log.Logger
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
	busy    atomic.Bool
}

func newDebouncer(delay time.Duration, fire func([]string), logger *log.Logger) *debouncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &debouncer{delay: delay, fire: fire, logger: logger, pending: make(map[string]struct{})}
}

func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[path] = struct{}{}
	d.schedule()
}

// schedule must be called with mu held.
func (d *debouncer) schedule() {
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.flush)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *debouncer) flush() {
	if !d.busy.CompareAndSwap(false, true) {
		d.logger.Debug("previous run still in progress, deferring")
		d.mu.Lock()
		if !d.stopped {
			d.schedule()
		}
		d.mu.Unlock()
		return
	}
	defer d.busy.Store(false)

	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(d.pending))
	for p := range d.pending {
		batch = append(batch, p)
	}
	clear(d.pending)
	d.mu.Unlock()

	slices.Sort(batch)
	d.fire(batch)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
