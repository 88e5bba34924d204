package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bull/docchat/internal/provider"
)

// Stage identifies the step of the answer pipeline that failed.
type Stage string

const (
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

var (
	ErrRetrieval      = errors.New("retrieval failed")
	ErrGeneration     = errors.New("generation failed")
	ErrAuthentication = errors.New("authentication error")
)

// Error is returned by Engine.Answer. It matches ErrRetrieval or
// ErrGeneration by stage, and ErrAuthentication when credentials were the cause.
type Error struct {
	Stage Stage
	Auth  bool
	Err   error
}

func (e *Error) Error() string {
	if e.Auth {
		return fmt.Sprintf("%s: %v: %v", e.Stage, ErrAuthentication, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := []error{e.stageErr(), e.Err}
	if e.Auth {
		errs = append(errs, ErrAuthentication)
	}
	return errs
}

func (e *Error) stageErr() error {
	if e.Stage == StageRetrieval {
		return ErrRetrieval
	}
	return ErrGeneration
}

func newError(stage Stage, err error) *Error {
	return &Error{Stage: stage, Auth: isAuthError(err), Err: err}
}

// authMarkers are lower-case fragments of provider messages about credentials.
var authMarkers = []string{
	"authorization",
	"unauthorized",
	"authentication",
	"api key",
	"api_key",
	"permission denied",
	"invalid credentials",
}

// isAuthError classifies credential failures, by sentinel or by message.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, provider.ErrUnauthorized) || errors.Is(err, provider.ErrMissingAPIKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// FailureMessage renders a user-facing message for an Answer error.
func FailureMessage(err error) string {
	var chatErr *Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return "Authentication error: the language model provider rejected the request. " +
			"Check that your API key is set in the environment and is valid."
	case errors.Is(err, context.DeadlineExceeded) && errors.Is(err, ErrGeneration):
		return "Sorry, the language model took too long to respond. Please try again."
	case errors.As(err, &chatErr) && chatErr.Stage == StageRetrieval:
		return fmt.Sprintf("Sorry, I couldn't search the document: %v", chatErr.Err)
	case errors.As(err, &chatErr):
		return fmt.Sprintf("Sorry, I encountered an error while generating a response: %v", chatErr.Err)
	default:
		return fmt.Sprintf("Sorry, I encountered an error: %v", err)
	}
}
