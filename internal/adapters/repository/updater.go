package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/perfil/pkg/metrics"
)

// updater periodically publishes record counts.
type updater struct {
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

func (u *updater) start(ctx context.Context, interval time.Duration, counts func(context.Context) (int, int, error)) {
	u.stopChan = make(chan struct{})
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-u.stopChan:
				return
			case <-ticker.C:
				students, responses, err := counts(ctx)
				if err != nil {
					metrics.RecordErrorByComponent("repository", "count")
					continue
				}
				metrics.UpdateRepositoryRecords("students", students)
				metrics.UpdateRepositoryRecords("responses", responses)
			}
		}
	}()
}

func (u *updater) stop() {
	u.stopOnce.Do(func() {
		if u.stopChan != nil {
			close(u.stopChan)
		}
	})
	u.wg.Wait()
}
