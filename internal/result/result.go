// Package result holds the uniform envelope returned by every persistence
// operation: either a success carrying a value or a failure carrying a kind
// and a message.
package result

import (
	"encoding/json"
)

// Kind classifies a failure.
type Kind int

const (
	// KindAuth: not logged in, invalid credentials, expired session.
	KindAuth Kind = iota + 1
	// KindNotFound: the id does not resolve under the caller's owner.
	KindNotFound
	// KindValidation: input rejected by client-side validation.
	KindValidation
	// KindUnavailable: the remote backend could not be reached or accessed.
	KindUnavailable
	// KindTransient: a single remote call timed out.
	KindTransient
	// KindStorage: the local store could not read or persist.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	case KindTransient:
		return "transient"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Domain reports whether the failure is an expected, user-actionable
// condition rather than an infrastructure problem.
func (k Kind) Domain() bool {
	return k == KindAuth || k == KindNotFound || k == KindValidation
}

// Failure is the failure variant of a Result.
type Failure struct {
	Kind    Kind
	Message string
}

func (f Failure) Error() string {
	return f.Message
}

// Result is either Ok(value) or Fail(kind, message). The zero value is not
// meaningful; build results with Ok or Fail.
type Result[T any] struct {
	value   T
	failure *Failure
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{failure: &Failure{Kind: kind, Message: message}}
}

// FromFailure carries an existing failure into a result of another type.
func FromFailure[T any](f Failure) Result[T] {
	return Fail[T](f.Kind, f.Message)
}

func (r Result[T]) Success() bool {
	return r.failure == nil
}

// Value returns the success value; ok is false for failures.
func (r Result[T]) Value() (value T, ok bool) {
	return r.value, r.failure == nil
}

// Failure returns the failure; ok is false for successes.
func (r Result[T]) Failure() (f Failure, ok bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// Match calls exactly one of the two functions.
func (r Result[T]) Match(onOk func(T), onFail func(Failure)) {
	if r.failure != nil {
		onFail(*r.failure)
		return
	}
	onOk(r.value)
}

// Map transforms a success value and passes failures through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.failure != nil {
		return FromFailure[U](*r.failure)
	}
	return Ok(fn(r.value))
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// MarshalJSON renders {success: true, data} or {success: false, error, kind}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.failure != nil {
		return json.Marshal(envelope{Success: false, Error: r.failure.Message, Kind: r.failure.Kind.String()})
	}
	return json.Marshal(envelope{Success: true, Data: r.value})
}
