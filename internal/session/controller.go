// File: internal/session/controller.go
// Description: Serializes submissions so that at most one job/poll sequence is
// active per session. A generation counter guards every delivery, so a
// superseded job's engine can never reach the sink, no matter how late its
// network responses arrive.

package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bidlens/bidlens-cli/api/schemas"
	"github.com/bidlens/bidlens-cli/internal/normalize"
	"github.com/bidlens/bidlens-cli/internal/poll"
)

// Controller owns the single "current active job" reference for one user
// session. Each Submit cancels the previous job's engine, bumps the
// generation, and starts a fresh poll engine; outcomes of stale generations
// are discarded on arrival.
type Controller struct {
	svc      schemas.AnalysisService
	sink     schemas.Sink
	lookup   normalize.Lookup
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{} // closed when the current engine goroutine exits
}

// New creates a session controller delivering outcomes to sink. A zero
// interval uses the poll engine's default; lookup may be nil.
func New(svc schemas.AnalysisService, sink schemas.Sink, lookup normalize.Lookup, interval time.Duration, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		svc:      svc,
		sink:     sink,
		lookup:   lookup,
		interval: interval,
		logger:   logger,
	}
}

// Submit starts a new analysis job. Any job still polling is cancelled first:
// its timer is invalidated and any in-flight response becomes stale. Exactly
// one of OnResult/OnError fires for this submission unless a later Submit
// supersedes it, in which case neither fires.
func (c *Controller) Submit(ctx context.Context, input schemas.Input) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.logger.Debug("superseding active job", zap.Uint64("generation", c.gen))
	}
	c.gen++
	gen := c.gen
	jobCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	guard := &generationSink{ctrl: c, gen: gen}
	engine := poll.New(c.svc, guard, c.lookup, c.interval, c.logger.Named("poll"))

	go func() {
		defer close(done)
		defer cancel()
		engine.Run(jobCtx, input)
	}()
}

// Cancel aborts the active job, if any, without starting a new one.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++ // anything still in flight is now stale
}

// Wait blocks until the most recently submitted engine goroutine has exited.
// Used by the CLI to hold the process open until the outcome is delivered.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// deliver forwards one sink call if gen is still current. The generation
// check and the forward happen under the same lock that Submit uses to bump
// the generation, so a superseded engine can never slip a delivery through
// mid-supersede. Sink implementations must not call Submit from inside a
// callback.
func (c *Controller) deliver(gen uint64, fn func(schemas.Sink)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("discarding stale delivery", zap.Uint64("generation", gen))
		return
	}
	fn(c.sink)
}

// generationSink stamps every delivery of one engine with the generation it
// was started under.
type generationSink struct {
	ctrl *Controller
	gen  uint64
}

func (g *generationSink) OnProgress(message string) {
	g.ctrl.deliver(g.gen, func(s schemas.Sink) { s.OnProgress(message) })
}

func (g *generationSink) OnResult(result *schemas.AnalysisResult) {
	g.ctrl.deliver(g.gen, func(s schemas.Sink) { s.OnResult(result) })
}

func (g *generationSink) OnError(message string) {
	g.ctrl.deliver(g.gen, func(s schemas.Sink) { s.OnError(message) })
}
