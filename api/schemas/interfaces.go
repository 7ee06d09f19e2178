// File: api/schemas/interfaces.go
// Description: Interfaces decoupling the poll engine and session controller
// from the concrete HTTP client and from the rendering layer.

package schemas

import "context"

// AnalysisService is the client-facing surface of the remote analysis
// backend. The core makes no assumption about transport beyond these
// request/response shapes; authentication and base-URL resolution live in the
// implementing client.
type AnalysisService interface {
	// SubmitText submits raw text for analysis and returns the initial job
	// snapshot. The service may resolve synchronously, in which case the
	// snapshot already carries a terminal status and result.
	SubmitText(ctx context.Context, text, filename string) (*JobSnapshot, error)

	// SubmitFile uploads a document for analysis.
	SubmitFile(ctx context.Context, path string) (*JobSnapshot, error)

	// GetJob fetches the current snapshot of a previously accepted job.
	GetJob(ctx context.Context, jobID string) (*JobSnapshot, error)
}

// Sink receives the observable outcomes of one submission. Exactly one of
// OnResult/OnError fires per submission, exactly once, unless the submission
// is superseded by a later one (then neither fires).
type Sink interface {
	OnProgress(message string)
	OnResult(result *AnalysisResult)
	OnError(message string)
}
