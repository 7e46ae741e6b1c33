package contracts

import "errors"

// Sentinel errors shared by data providers and the screening core.
// Providers wrap these with %w; callers classify with errors.Is.
var (
	// ErrNotFound: ticker or contract unknown to the provider
	ErrNotFound = errors.New("ticker not found")
	// ErrProviderValidation: provider returned malformed or unexpected data
	ErrProviderValidation = errors.New("provider validation failed")
	// ErrComputationDegenerate: zero-width or mis-ordered spread, non-finite metrics
	ErrComputationDegenerate = errors.New("degenerate spread computation")
)
