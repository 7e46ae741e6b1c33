package screener

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/httputil"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"not found sentinel", fmt.Errorf("quote: %w", contracts.ErrNotFound), KindNotFound},
		{"http 404", &httputil.StatusError{StatusCode: http.StatusNotFound}, KindNotFound},
		{"validation", fmt.Errorf("x: %w", contracts.ErrProviderValidation), KindProviderValidationFailure},
		{"decode", fmt.Errorf("x: %w", httputil.ErrDecode), KindProviderValidationFailure},
		{"degenerate", contracts.ErrComputationDegenerate, KindComputationDegenerate},
		{"http 500", &httputil.StatusError{StatusCode: 500}, KindGenericFetchFailure},
		{"other", errors.New("boom"), KindGenericFetchFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("X", nil))

	err := Classify("AAPL", fmt.Errorf("quote: %w", contracts.ErrNotFound))
	var se *ScreenError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "AAPL", se.Ticker)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "AAPL")

	// already classified errors keep their kind
	again := Classify("MSFT", err)
	assert.Same(t, err, again)
}

func TestErrorKindCode(t *testing.T) {
	assert.Equal(t, "WRONG-TICKER", KindNotFound.Code())
	assert.Equal(t, "FAILED-VALIDATION", KindProviderValidationFailure.Code())
	assert.Equal(t, "DEGENERATE", KindComputationDegenerate.Code())
	assert.Equal(t, "FETCH-FAILED", KindGenericFetchFailure.Code())
}
