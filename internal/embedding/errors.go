package embedding

import (
	"errors"
	"fmt"
)

// ErrBadResponse is returned when a provider answers with the wrong number
// or size of vectors.
var ErrBadResponse = errors.New("unexpected embedding response")

func errCount(want, got int) error {
	return fmt.Errorf("%w: expected %d vectors, got %d", ErrBadResponse, want, got)
}
