package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/metrics"
)

// Func is the body of a job.
type Func func(ctx context.Context) (any, error)

// Runner executes submitted jobs in the background one at a time, so runs
// never race on the shared price cache or report files.
type Runner struct {
	store   *Store
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Registry

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewRunner creates a job runner. logger and m may be nil.
func NewRunner(store *Store, timeout time.Duration, logger *zap.Logger, m *metrics.Registry) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: store, timeout: timeout, logger: logger, metrics: m}
}

// Store returns the underlying job store.
func (r *Runner) Store() *Store {
	return r.store
}

// Submit registers a job of jobType and starts fn in the background. The
// returned job is in pending state.
func (r *Runner) Submit(jobType string, fn Func) *Job {
	j := r.store.Create(jobType)
	r.setActive(jobType)

	r.wg.Add(1)
	go func(id string) {
		defer r.wg.Done()
		r.run(id, jobType, fn)
	}(j.ID)

	return j
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(id, jobType string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logger.With(zap.String("job_id", id), zap.String("type", jobType))
	r.update(log, id, func(j *Job) {
		j.Status = StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	result, err := fn(ctx)
	if err != nil {
		log.Warn("job failed", zap.Error(err))
		r.update(log, id, func(j *Job) {
			j.Status = StatusFailed
			j.Error = newFailure(err)
		})
	} else {
		log.Info("job complete")
		r.update(log, id, func(j *Job) {
			j.Status = StatusComplete
			j.Progress = 100
			j.Result = result
		})
	}
	r.setActive(jobType)
}

func (r *Runner) update(log *zap.Logger, id string, fn func(*Job)) {
	if err := r.store.Update(id, fn); err != nil {
		log.Warn("job update failed", zap.Error(err))
	}
}

func (r *Runner) setActive(jobType string) {
	if r.metrics != nil {
		r.metrics.SetJobsActive(jobType, r.store.Active(jobType))
	}
}

// newFailure takes the code of the first coded error in err's chain, or
// INTERNAL_ERROR, and keeps the full message.
func newFailure(err error) *Failure {
	f := &Failure{Code: core.ErrInternal.Code, Message: err.Error()}
	var coded *core.Error
	if errors.As(err, &coded) {
		f.Code = coded.Code
	}
	return f
}
