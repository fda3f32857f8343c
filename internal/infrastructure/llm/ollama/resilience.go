package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/resilience"
)

var (
	// ErrModelNotFound is returned when ollama has not pulled the configured
	// generation or embedding model.
	ErrModelNotFound = errors.New("ollama model not found")
	// ErrMalformedReply covers bodies that do not decode or do not carry the
	// expected fields.
	ErrMalformedReply = errors.New("ollama malformed reply")
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, e.Body)
}

// Unwrap exposes ErrModelNotFound for ollama's 404 {"error":"model ... not found"}.
func (e *HTTPStatusError) Unwrap() error {
	if e != nil && e.StatusCode == http.StatusNotFound && strings.Contains(strings.ToLower(e.Body), "not found") {
		return ErrModelNotFound
	}
	return nil
}

func malformedReply(operation, format string, args ...any) error {
	return fmt.Errorf("ollama %s: %w: %s", operation, ErrMalformedReply, fmt.Sprintf(format, args...))
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.Is(err, ErrModelNotFound):
		// Deployment fault; ollama itself is healthy.
		return resilience.ErrorClassification{}
	case errors.Is(err, ErrMalformedReply), errors.Is(err, domain.ErrEmptyReply):
		return resilience.ErrorClassification{RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		retryable := isRetryableHTTPStatus(statusErr.StatusCode)
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

// classifyOutcome maps a failed call onto the domain kinds: transient failures
// become ErrTemporary, a missing model or a bad reply becomes ErrUpstream.
func classifyOutcome(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrUpstream):
		return err
	case resilience.IsCircuitOpen(err), classifyOllamaError(err).Retryable:
		return domain.WrapError(domain.ErrTemporary, operation, err)
	case errors.Is(err, ErrModelNotFound), errors.Is(err, ErrMalformedReply), errors.Is(err, domain.ErrEmptyReply):
		return domain.WrapError(domain.ErrUpstream, operation, err)
	default:
		return err
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
