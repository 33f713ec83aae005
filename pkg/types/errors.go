package types

import "errors"

// Error taxonomy for the pipeline. Extraction errors are deliberately
// absent: an unreadable or blank document is skipped in place and never
// surfaces past its worker.
var (
	// ErrServiceUnavailable means the embedding provider did not become
	// reachable within the startup-probe timeout. Fatal to the run.
	ErrServiceUnavailable = errors.New("embedding service unavailable")

	// ErrInvalidWorkItem marks a malformed work descriptor. Fatal to that
	// unit only; sibling units are unaffected.
	ErrInvalidWorkItem = errors.New("invalid work item")

	// ErrBatchTooLarge means a single embed request exceeded the
	// provider-imposed maximum batch size.
	ErrBatchTooLarge = errors.New("batch size exceeds provider limit")

	// ErrProviderFailed wraps an embed call rejected by the provider.
	ErrProviderFailed = errors.New("embedding provider failed")
)
