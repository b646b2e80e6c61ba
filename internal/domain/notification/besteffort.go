package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BestEffort runs detached side effects. Their failures are logged and
// never reach the caller that started them.
type BestEffort struct {
	wg      sync.WaitGroup
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewBestEffort(timeout time.Duration, log logrus.FieldLogger) *BestEffort {
	return &BestEffort{timeout: timeout, log: log}
}

// Go starts fn in its own goroutine. fn gets a context that survives
// cancellation of parent but expires after the runner's timeout.
func (b *BestEffort) Go(parent context.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), b.timeout)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				b.log.WithField("task", name).Error(fmt.Sprintf("best-effort task panicked: %v", r))
			}
		}()

		if err := fn(ctx); err != nil {
			b.log.WithError(err).WithField("task", name).Warn("best-effort task failed")
		}
	}()
}

// Wait blocks until every started task has returned.
func (b *BestEffort) Wait() {
	b.wg.Wait()
}
