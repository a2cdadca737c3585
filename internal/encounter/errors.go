package encounter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStage is returned when an operation is invoked outside the
	// stage it applies to. The state is left untouched.
	ErrInvalidStage = errors.New("invalid stage")
	// ErrInvalidInput is returned for an empty riddle submission.
	ErrInvalidInput = errors.New("invalid input")
)

// StageError describes an operation attempted in the wrong stage.
type StageError struct {
	Op   string
	Have Stage
	Want Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v in stage %s (requires %s)", e.Op, ErrInvalidStage, e.Have, e.Want)
}

func (e *StageError) Unwrap() error { return ErrInvalidStage }

func requireStage(op string, st State, want Stage) error {
	if st.Stage != want {
		return &StageError{Op: op, Have: st.Stage, Want: want}
	}
	return nil
}
