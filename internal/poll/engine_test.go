package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

// -- Mock Implementations for Testing --

// pollStep scripts one GetJob response.
type pollStep struct {
	snap *schemas.JobSnapshot
	err  error
}

// scriptedService is a mock AnalysisService with a fixed submission response
// and a sequence of scripted poll responses.
type scriptedService struct {
	mu          sync.Mutex
	submitSnap  *schemas.JobSnapshot
	submitErr   error
	polls       []pollStep
	submitCalls int
	pollCalls   int
	pollJobIDs  []string
}

func (s *scriptedService) SubmitText(ctx context.Context, text, filename string) (*schemas.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitCalls++
	return s.submitSnap, s.submitErr
}

func (s *scriptedService) SubmitFile(ctx context.Context, path string) (*schemas.JobSnapshot, error) {
	return s.SubmitText(ctx, "", path)
}

func (s *scriptedService) GetJob(ctx context.Context, jobID string) (*schemas.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollJobIDs = append(s.pollJobIDs, jobID)
	if s.pollCalls >= len(s.polls) {
		s.pollCalls++
		return nil, errors.New("unscripted poll")
	}
	step := s.polls[s.pollCalls]
	s.pollCalls++
	return step.snap, step.err
}

func (s *scriptedService) counts() (submits, polls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitCalls, s.pollCalls
}

// recordingSink captures every delivery.
type recordingSink struct {
	mu       sync.Mutex
	progress []string
	results  []*schemas.AnalysisResult
	errors   []string
}

func (r *recordingSink) OnProgress(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, message)
}

func (r *recordingSink) OnResult(result *schemas.AnalysisResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recordingSink) OnError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recordingSink) outcomes() (results []*schemas.AnalysisResult, errs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results, r.errors
}

const testInterval = 5 * time.Millisecond

// -- Test Cases --

func TestEngine_SynchronousCompletion(t *testing.T) {
	t.Parallel()

	// Scenario: the service resolves the job within the submission response.
	svc := &scriptedService{
		submitSnap: &schemas.JobSnapshot{
			Status: "completed",
			Result: []byte(`{"categories": {"拦标项": [{"severity": "critical", "title": "唯一品牌"}]}, "summary": {"拦标项": 1}}`),
		},
	}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, testInterval, nil)

	engine.Run(context.Background(), schemas.Input{Text: "标书全文"})

	results, errs := sink.outcomes()
	require.Len(t, results, 1, "exactly one OnResult")
	assert.Empty(t, errs)

	res := results[0]
	require.Len(t, res.Categories, 1)
	assert.Equal(t, "拦标项", res.Categories[0].Name)
	require.Len(t, res.Categories[0].Hits, 1)
	assert.Equal(t, 4, res.Categories[0].Hits[0].SeverityRank)
	assert.Equal(t, map[string]int{"拦标项": 1}, res.SummaryCounts)

	_, polls := svc.counts()
	assert.Zero(t, polls, "a synchronously resolved job must not be polled")
	assert.Equal(t, StateCompleted, engine.State())
}

func TestEngine_PollUntilCompleted(t *testing.T) {
	t.Parallel()

	// Scenario: submission accepts the job, one poll resolves it.
	svc := &scriptedService{
		submitSnap: &schemas.JobSnapshot{JobID: "abc", Status: "processing"},
		polls: []pollStep{
			{snap: &schemas.JobSnapshot{JobID: "abc", Status: "completed", Result: []byte(`{"categories": {"c": []}}`)}},
		},
	}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, testInterval, nil)

	engine.Run(context.Background(), schemas.Input{Text: "text"})

	results, errs := sink.outcomes()
	require.Len(t, results, 1)
	assert.Empty(t, errs)

	submits, polls := svc.counts()
	assert.Equal(t, 1, submits)
	assert.Equal(t, 1, polls, "no further polls after a terminal response")
	assert.Equal(t, []string{"abc"}, svc.pollJobIDs)
}

func TestEngine_MultiplePollsThenFailure(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{
		submitSnap: &schemas.JobSnapshot{JobID: "abc", Status: "pending"},
		polls: []pollStep{
			{snap: &schemas.JobSnapshot{JobID: "abc", Status: "processing"}},
			{snap: &schemas.JobSnapshot{JobID: "abc", Status: "failed", ErrorMessage: "未能从文件中提取文本"}},
		},
	}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, testInterval, nil)

	engine.Run(context.Background(), schemas.Input{Text: "text"})

	results, errs := sink.outcomes()
	assert.Empty(t, results)
	require.Len(t, errs, 1, "exactly one OnError")
	assert.Equal(t, "未能从文件中提取文本", errs[0], "application failure message is surfaced verbatim")

	_, polls := svc.counts()
	assert.Equal(t, 2, polls)
	assert.Equal(t, StateFailed, engine.State())
}

func TestEngine_PollTransportErrorIsTerminal(t *testing.T) {
	t.Parallel()

	// Scenario: the poll itself fails at the transport level; the engine must
	// not retry.
	svc := &scriptedService{
		submitSnap: &schemas.JobSnapshot{JobID: "abc", Status: "processing"},
		polls: []pollStep{
			{err: errors.New("HTTP 500")},
		},
	}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, testInterval, nil)

	engine.Run(context.Background(), schemas.Input{Text: "text"})

	results, errs := sink.outcomes()
	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], ErrPollTransport.Error())

	_, polls := svc.counts()
	assert.Equal(t, 1, polls, "no retry after a transport failure")
}

func TestEngine_MissingJobID(t *testing.T) {
	t.Parallel()

	// Scenario: non-terminal status with no job id leaves nothing to poll.
	svc := &scriptedService{
		submitSnap: &schemas.JobSnapshot{Status: "processing"},
	}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, testInterval, nil)

	engine.Run(context.Background(), schemas.Input{Text: "text"})

	results, errs := sink.outcomes()
	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], ErrNoJobID.Error())

	_, polls := svc.counts()
	assert.Zero(t, polls, "no poll may be scheduled without a job id")
}

func TestEngine_SubmitTransportError(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{submitErr: errors.New("connection refused")}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, testInterval, nil)

	engine.Run(context.Background(), schemas.Input{Text: "text"})

	results, errs := sink.outcomes()
	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "connection refused")

	_, polls := svc.counts()
	assert.Zero(t, polls, "submission failures abort immediately, no job is created")
}

func TestEngine_CompletedWithoutResult(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{
		submitSnap: &schemas.JobSnapshot{JobID: "abc", Status: "completed"},
	}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, testInterval, nil)

	engine.Run(context.Background(), schemas.Input{Text: "text"})

	results, errs := sink.outcomes()
	assert.Empty(t, results)
	require.Len(t, errs, 1)
}

func TestEngine_CancellationDeliversNothing(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the interval elapses

	svc := &scriptedService{
		submitSnap: &schemas.JobSnapshot{JobID: "abc", Status: "processing"},
	}
	sink := &recordingSink{}
	engine := New(svc, sink, nil, time.Hour, nil)

	engine.Run(ctx, schemas.Input{Text: "text"})

	results, errs := sink.outcomes()
	assert.Empty(t, results, "a cancelled engine delivers no result")
	assert.Empty(t, errs, "a cancelled engine delivers no error")

	_, polls := svc.counts()
	assert.Zero(t, polls)
}

func TestEngine_TerminalStateNeverTransitions(t *testing.T) {
	t.Parallel()

	engine := New(&scriptedService{}, &recordingSink{}, nil, testInterval, nil)
	require.True(t, engine.transition(StateSubmitted))
	require.True(t, engine.transition(StateCompleted))
	assert.False(t, engine.transition(StateFailed), "terminal states are final")
	assert.Equal(t, StateCompleted, engine.State())
}
