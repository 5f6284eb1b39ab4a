package service

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/templui/dashh/internal/repository"
	"github.com/templui/dashh/internal/result"
)

var (
	ErrNotAuthenticated   = errors.New("User not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrFileNotFound       = errors.New("File not found")
	ErrNoContent          = errors.New("File content not available")
	ErrRemoteUnavailable  = errors.New("remote backend unavailable")
)

// ValidationError marks input rejected before any backend is touched.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// classify maps an error to a failure kind and the message shown to callers.
// Domain errors keep their message; infrastructure errors are reported in
// generic terms and logged with detail.
func classify(op string, err error) result.Failure {
	var verr *ValidationError

	switch {
	case errors.As(err, &verr):
		return result.Failure{Kind: result.KindValidation, Message: verr.Error()}
	case errors.Is(err, ErrNotAuthenticated):
		return result.Failure{Kind: result.KindAuth, Message: ErrNotAuthenticated.Error()}
	case errors.Is(err, ErrInvalidCredentials):
		return result.Failure{Kind: result.KindAuth, Message: ErrInvalidCredentials.Error()}
	case errors.Is(err, repository.ErrDuplicateEmail):
		return result.Failure{Kind: result.KindValidation, Message: repository.ErrDuplicateEmail.Error()}
	case errors.Is(err, ErrFileNotFound), errors.Is(err, repository.ErrFileNotFound):
		return result.Failure{Kind: result.KindNotFound, Message: ErrFileNotFound.Error()}
	case errors.Is(err, ErrNoContent):
		return result.Failure{Kind: result.KindNotFound, Message: ErrNoContent.Error()}
	case unreachable(err):
		slog.Warn("remote backend unreachable", "op", op, "error", err)
		return result.Failure{Kind: result.KindUnavailable, Message: ErrRemoteUnavailable.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), mongo.IsTimeout(err):
		slog.Warn("remote call timed out", "op", op, "error", err)
		return result.Failure{Kind: result.KindTransient, Message: "request timed out"}
	default:
		slog.Warn("remote call failed", "op", op, "error", err)
		return result.Failure{Kind: result.KindUnavailable, Message: ErrRemoteUnavailable.Error()}
	}
}

// unreachable reports errors raised before any server answered: no server
// could be selected, the connection broke, or the client is gone. The driver
// reports a selection that ran out of time as a timeout too, so this must be
// checked first.
func unreachable(err error) bool {
	var sse topology.ServerSelectionError
	var cerr topology.ConnectionError
	return errors.As(err, &sse) ||
		errors.As(err, &cerr) ||
		errors.Is(err, topology.ErrServerSelectionTimeout) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsNetworkError(err)
}

func fail[T any](op string, err error) result.Result[T] {
	return result.FromFailure[T](classify(op, err))
}
