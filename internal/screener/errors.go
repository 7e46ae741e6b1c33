package screener

import (
	"errors"
	"fmt"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/httputil"
)

// ErrorKind is the closed set of screening failure classes
type ErrorKind string

const (
	KindNotFound                  ErrorKind = "not_found"
	KindProviderValidationFailure ErrorKind = "provider_validation_failure"
	KindComputationDegenerate     ErrorKind = "computation_degenerate"
	KindGenericFetchFailure       ErrorKind = "generic_fetch_failure"
)

// Code is the machine-readable marker surfaced to API and CLI callers
func (k ErrorKind) Code() string {
	switch k {
	case KindNotFound:
		return "WRONG-TICKER"
	case KindProviderValidationFailure:
		return "FAILED-VALIDATION"
	case KindComputationDegenerate:
		return "DEGENERATE"
	default:
		return "FETCH-FAILED"
	}
}

// Sentinels re-exported so callers only import this package
var (
	ErrNotFound              = contracts.ErrNotFound
	ErrProviderValidation    = contracts.ErrProviderValidation
	ErrComputationDegenerate = contracts.ErrComputationDegenerate
)

// ScreenError is a classified failure for one ticker
type ScreenError struct {
	Kind   ErrorKind
	Ticker string
	Err    error
}

func (e *ScreenError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Ticker, e.Err)
}

func (e *ScreenError) Unwrap() error {
	return e.Err
}

// Classify wraps err into a *ScreenError. Already classified errors pass through.
func Classify(ticker string, err error) error {
	if err == nil {
		return nil
	}

	var se *ScreenError
	if errors.As(err, &se) {
		return err
	}

	return &ScreenError{Kind: kindOf(err), Ticker: ticker, Err: err}
}

// KindOf returns the taxonomy class of any error
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var se *ScreenError
	if errors.As(err, &se) {
		return se.Kind
	}
	return kindOf(err)
}

func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, contracts.ErrNotFound), errors.Is(err, httputil.ErrNotFound):
		return KindNotFound
	case errors.Is(err, contracts.ErrProviderValidation), errors.Is(err, httputil.ErrDecode):
		return KindProviderValidationFailure
	case errors.Is(err, contracts.ErrComputationDegenerate):
		return KindComputationDegenerate
	default:
		return KindGenericFetchFailure
	}
}
