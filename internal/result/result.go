package result

import (
	"errors"
	"fmt"
)

// ErrContractViolation is raised when Unwrap is called on a failed Result.
// The caller skipped the IsSuccess check; this is a programming error.
var ErrContractViolation = errors.New("result: unwrap called on a failure")

// Result holds exactly one of a success value or a failure value.
type Result[T, E any] struct {
	value T
	err   E
	ok    bool
}

// Ok builds a successful Result
func Ok[T, E any](value T) Result[T, E] {
	return Result[T, E]{value: value, ok: true}
}

// Fail builds a failed Result
func Fail[T, E any](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// From converts a Go (value, error) pair into a Result.
func From[T any](value T, err error) Result[T, error] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok[T, error](value)
}

// IsSuccess reports whether the Result was built with Ok.
func (r Result[T, E]) IsSuccess() bool {
	return r.ok
}

// Unwrap returns the success value. It panics with an error wrapping
// ErrContractViolation when the Result is a failure.
func (r Result[T, E]) Unwrap() T {
	if !r.ok {
		panic(fmt.Errorf("%w: %v", ErrContractViolation, r.err))
	}
	return r.value
}

// Failure returns the failure value, or the zero E for a success.
func (r Result[T, E]) Failure() E {
	return r.err
}

// Get returns both arms and whether the Result is a success.
func (r Result[T, E]) Get() (T, E, bool) {
	return r.value, r.err, r.ok
}
