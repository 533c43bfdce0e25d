package tray

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ema-tray/core/models"
	"github.com/koscakluka/ema-tray/core/permissions"
)

var (
	ErrUnknown              = errors.New("unknown tray error")
	ErrSetupInProgress      = errors.New("tray setup already in progress")
	ErrModelsNotInitialized = errors.New("models not initialized")
	ErrSessionClosed        = errors.New("tray session closed")
)

// SetupErrorReason classifies why a setup sequence was aborted.
type SetupErrorReason string

const (
	SetupErrorUnknown                    SetupErrorReason = "unknown"
	SetupErrorInvalidModelDownloadStatus SetupErrorReason = "invalidModelDownloadStatus"
	SetupErrorDeniedMicrophone           SetupErrorReason = "deniedMicrophone"
	SetupErrorDeniedSpeech               SetupErrorReason = "deniedSpeech"
	SetupErrorDeniedBoth                 SetupErrorReason = "deniedBoth"
)

// SetupError is returned from ViewModel.Listen and carried by the
// SetupFailed event. The cause stays reachable through errors.Is and
// errors.As.
type SetupError struct {
	Reason SetupErrorReason
	Err    error
}

func newSetupError(err error) *SetupError {
	var setupErr *SetupError
	if errors.As(err, &setupErr) {
		return setupErr
	}

	reason := SetupErrorUnknown
	switch {
	case errors.Is(err, permissions.ErrDeniedBoth):
		reason = SetupErrorDeniedBoth
	case errors.Is(err, permissions.ErrDeniedMicrophone):
		reason = SetupErrorDeniedMicrophone
	case errors.Is(err, permissions.ErrDeniedSpeech):
		reason = SetupErrorDeniedSpeech
	case errors.Is(err, models.ErrInvalidModelDownloadStatus):
		reason = SetupErrorInvalidModelDownloadStatus
	}
	return &SetupError{Reason: reason, Err: err}
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("tray setup failed (%s): %v", e.Reason, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

func (e *SetupError) Is(target error) bool {
	return target == ErrUnknown && e.Reason == SetupErrorUnknown
}
