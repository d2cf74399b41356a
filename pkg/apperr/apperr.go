package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason   = "reason"
	MetaStage    = "stage"
	MetaField    = "field"
	MetaRole     = "role"
	MetaAttempt  = "attempt_id"
	MetaAction   = "action"
	MetaSelector = "selector"
	MetaURL      = "url"
	MetaExpected = "expected"
	MetaActual   = "actual"

	StagePreparation = "preparation"
	StageBrowser     = "browser"
	StageNavigation  = "navigation"
	StageInteraction = "interaction"
	StageResolution  = "resolution"
	StageWizard      = "wizard"
	StageCaptcha     = "captcha"
	StageSubmission  = "submission"
	StagePersistence = "persistence"
	StageScreenshot  = "screenshot"

	CodeInternal             = "internal"
	CodeInvalidArgument      = "invalid_argument"
	CodeNotFound             = "not_found"
	CodeTimeout              = "timeout"
	CodeBrowserNotReady      = "browser_not_ready"
	CodeActionFailed         = "action_failed"
	CodeFieldNotFound        = "field_not_found"
	CodeFieldMismatch        = "field_mismatch"
	CodeStageUnrecognized    = "stage_unrecognized"
	CodeNavigationTimeout    = "navigation_timeout"
	CodeSubmitControlMissing = "submit_control_missing"
	CodeCaptchaUnsolved      = "captcha_unsolved"
	CodeAlreadyApplied       = "already_applied"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

// FieldNotFound is recoverable: callers tally it and move on.
func FieldNotFound(op, role string) error {
	return Wrap(op, CodeFieldNotFound, fmt.Errorf("no usable element for role %q", role), map[string]any{
		MetaRole:   role,
		MetaStage:  StageResolution,
		MetaReason: "no_strategy_matched",
	})
}

// Code returns the code of the outermost *Error in the chain, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}

// Is reports whether any *Error in the chain carries code.
func Is(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code == code {
			return true
		}

		err = e.Err
	}

	return false
}

// Reason extracts MetaReason from the outermost *Error.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if r, ok := e.Metadata[MetaReason].(string); ok {
			return r
		}
	}

	return ""
}
