// File: internal/poll/engine.go
// Description: Owns the life cycle of one in-flight analysis job: submit,
// observe status, schedule re-checks, terminate on completion, failure or
// cancellation. The original callback-chained polling is expressed here as an
// explicit state machine with named states and transition guards.

package poll

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bidlens/bidlens-cli/api/schemas"
	"github.com/bidlens/bidlens-cli/internal/normalize"
)

// DefaultInterval is the fixed delay between status re-checks. The service is
// expected to be fast, so there is no backoff and no jitter; the re-check
// count is unbounded until a terminal state or cancellation.
const DefaultInterval = 1500 * time.Millisecond

// Sentinel errors for the client-side terminal outcomes.
var (
	// ErrNoJobID marks a non-terminal submission response that carried no job
	// id. With no poll target the job cannot be tracked.
	ErrNoJobID = errors.New("service accepted the job without an id; cannot track it")

	// ErrPollTransport marks a status re-check that failed at the transport
	// level. It is terminal: retrying would mask infrastructure failures as
	// slow jobs.
	ErrPollTransport = errors.New("status poll failed at the transport level")
)

// State names one position in the per-job state machine.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitted  State = "submitted"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether the state permits no further transitions.
func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }

// Engine drives a single job from submission to a terminal outcome. An Engine
// is single-use: Run may be called once, delivers at most one of
// OnResult/OnError, and never issues overlapping polls because the next
// re-check is only scheduled after the previous response has been fully
// processed.
type Engine struct {
	svc      schemas.AnalysisService
	sink     schemas.Sink
	lookup   normalize.Lookup
	interval time.Duration
	logger   *zap.Logger

	state State
	jobID string
}

// New creates an engine for one submission. A zero interval falls back to
// DefaultInterval; a nil lookup disables rule-catalog enrichment.
func New(svc schemas.AnalysisService, sink schemas.Sink, lookup normalize.Lookup, interval time.Duration, logger *zap.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		svc:      svc,
		sink:     sink,
		lookup:   lookup,
		interval: interval,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the engine's current state. Only meaningful once Run has
// returned, or from the goroutine running the engine.
func (e *Engine) State() State { return e.state }

// transition moves the state machine, refusing to leave a terminal state.
func (e *Engine) transition(to State) bool {
	if e.state.Terminal() {
		return false
	}
	e.state = to
	return true
}

// Run submits the input and polls until the job resolves or ctx is cancelled.
// On cancellation nothing is delivered to the sink; every other path ends in
// exactly one OnResult or OnError.
func (e *Engine) Run(ctx context.Context, input schemas.Input) {
	e.sink.OnProgress("正在提交分析任务…")

	snap, err := e.submit(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.fail("提交失败：" + err.Error())
		return
	}
	e.transition(StateSubmitted)

	for {
		status := schemas.ParseJobStatus(snap.Status)
		switch {
		case status == schemas.StatusCompleted:
			if len(snap.Result) == 0 {
				e.fail("分析已完成，但服务未返回结果")
				return
			}
			e.complete(snap)
			return

		case status == schemas.StatusFailed:
			msg := snap.ErrorMessage
			if msg == "" {
				msg = "分析失败"
			}
			e.fail(msg)
			return

		default:
			if snap.JobID == "" {
				e.logger.Warn("non-terminal snapshot without a job id", zap.String("status", snap.Status))
				e.fail(ErrNoJobID.Error())
				return
			}
			e.jobID = snap.JobID
			e.transition(StateProcessing)
			e.sink.OnProgress("分析中，请稍候…")
		}

		if !e.sleep(ctx) {
			return
		}

		snap, err = e.svc.GetJob(ctx, e.jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn("status poll failed",
				zap.String("job_id", e.jobID),
				zap.Error(err),
			)
			e.fail(ErrPollTransport.Error() + "：" + err.Error())
			return
		}
	}
}

func (e *Engine) submit(ctx context.Context, input schemas.Input) (*schemas.JobSnapshot, error) {
	if input.IsFile() {
		return e.svc.SubmitFile(ctx, input.FilePath)
	}
	return e.svc.SubmitText(ctx, input.Text, input.Filename)
}

// sleep waits out one re-check interval. Returns false if the context was
// cancelled while waiting.
func (e *Engine) sleep(ctx context.Context) bool {
	timer := time.NewTimer(e.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Engine) complete(snap *schemas.JobSnapshot) {
	e.transition(StateCompleted)
	result := normalize.Normalize(snap.Result, e.lookup)
	e.logger.Info("job completed",
		zap.String("job_id", snap.JobID),
		zap.Int("hits", result.TotalHits()),
		zap.Int("categories", len(result.Categories)),
	)
	e.sink.OnResult(result)
}

func (e *Engine) fail(message string) {
	e.transition(StateFailed)
	e.sink.OnError(message)
}
