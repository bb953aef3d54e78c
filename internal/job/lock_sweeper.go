package job

import (
	"context"
	"log"
	"time"
)

// Sweepable is the part of the in-memory lock service the sweeper needs.
// The Redis lock backend expires keys itself and never registers here.
type Sweepable interface {
	Sweep() int
	Len() int
}

// LockSweeper periodically removes expired entries from the in-memory
// activation lock table, bounding memory growth from abandoned or crashed
// activation attempts.
type LockSweeper struct {
	locks    Sweepable
	stopCh   chan struct{}
	interval time.Duration
}

func NewLockSweeper(locks Sweepable) *LockSweeper {
	return &LockSweeper{
		locks:    locks,
		stopCh:   make(chan struct{}),
		interval: 10 * time.Second,
	}
}

func (j *LockSweeper) Start(ctx context.Context) {
	log.Println("[LockSweeper] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[LockSweeper] context cancelled, exiting")
			return
		case <-j.stopCh:
			log.Println("[LockSweeper] stopped")
			return
		case <-ticker.C:
			if removed := j.locks.Sweep(); removed > 0 {
				log.Printf("[LockSweeper] removed %d expired entries, %d live", removed, j.locks.Len())
			}
		}
	}
}

func (j *LockSweeper) Stop() {
	close(j.stopCh)
}
