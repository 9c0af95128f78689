package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// reportFailures applies the batch escalation policy. A few failed items are
// bad rows and stay at warn level, but once half the batch or more fails the
// cause is almost always a downstream outage, which warrants an error.
func reportFailures(log *logrus.Logger, name string, total, failed int) {
	if failed == 0 {
		return
	}
	if failed*2 >= total {
		log.Errorf("Job %s: %d of %d items failed, downstream dependency likely unavailable", name, failed, total)
		return
	}
	log.Warnf("Job %s: %d of %d items failed", name, failed, total)
}

// Job is a periodic reconciliation task. Every job must be idempotent: the
// runner gives no exactly-once guarantee and a crashed run is simply retried
// on the next tick.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Runner drives each registered job on its own ticker. A tick is skipped when
// the previous run of the same job is still going, so a slow run never stacks.
type Runner struct {
	log  *logrus.Logger
	jobs []Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(log *logrus.Logger, jobs ...Job) *Runner {
	return &Runner{
		log:  log,
		jobs: jobs,
	}
}

func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.log.Infof("Job runner started with %d job(s)", len(r.jobs))
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("Job runner stopped")
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()

	var running atomic.Bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !running.CompareAndSwap(false, true) {
				r.log.Warnf("Job %s still running, skipping tick", job.Name())
				continue
			}
			// A run gets at most one interval of budget, so a wedged
			// run cannot starve the job forever.
			runCtx, cancel := context.WithTimeout(ctx, job.Interval())
			started := time.Now()
			if err := job.Run(runCtx); err != nil {
				r.log.Errorf("Job %s failed: %+v", job.Name(), err)
			} else {
				r.log.Debugf("Job %s finished in %s", job.Name(), time.Since(started))
			}
			cancel()
			running.Store(false)
		}
	}
}
