package conversation

import (
	"sync"

	"github.com/stridelab/stridecoach/pkg/fault"
)

// lockTable serialises turns per thread. Acquire is a try-lock: a second
// turn on a busy thread fails immediately instead of queueing, so the
// client sees the conflict while its first turn is still streaming.
type lockTable struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newLockTable() *lockTable {
	return &lockTable{active: make(map[string]struct{})}
}

// Acquire takes the thread lock or fails with a Busy fault. The returned
// release function is idempotent.
func (l *lockTable) Acquire(threadID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[threadID]; busy {
		return nil, fault.Newf(fault.Busy, "a turn is already running on thread %s", threadID)
	}
	l.active[threadID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, threadID)
			l.mu.Unlock()
		})
	}, nil
}
