package api

import "fmt"

// Result is one code out of the closed result set. Negative values are
// errors, zero and positive values are successes (possibly qualified, such
// as FrameDiscarded).
type Result int

// Success codes.
const (
	Success                Result = 0
	TimeoutExpired         Result = 1
	SessionLossPending     Result = 3
	EventUnavailable       Result = 4
	SpaceBoundsUnavailable Result = 7
	SessionNotFocused      Result = 8
	FrameDiscarded         Result = 9
)

// Error codes.
const (
	ErrValidationFailure            Result = -1
	ErrRuntimeFailure               Result = -2
	ErrOutOfMemory                  Result = -3
	ErrAPIVersionUnsupported        Result = -4
	ErrInitializationFailed         Result = -6
	ErrFunctionUnsupported          Result = -7
	ErrFeatureUnsupported           Result = -8
	ErrLimitReached                 Result = -10
	ErrSizeInsufficient             Result = -11
	ErrHandleInvalid                Result = -12
	ErrInstanceLost                 Result = -13
	ErrSessionRunning               Result = -14
	ErrSessionNotRunning            Result = -16
	ErrSessionLost                  Result = -17
	ErrSystemInvalid                Result = -18
	ErrPathInvalid                  Result = -19
	ErrPathCountExceeded            Result = -20
	ErrPathFormatInvalid            Result = -21
	ErrPathUnsupported              Result = -22
	ErrLayerInvalid                 Result = -23
	ErrLayerLimitExceeded           Result = -24
	ErrSwapchainRectInvalid         Result = -25
	ErrSwapchainFormatUnsupported   Result = -26
	ErrActionTypeMismatch           Result = -27
	ErrSessionNotReady              Result = -28
	ErrSessionNotStopping           Result = -29
	ErrTimeInvalid                  Result = -30
	ErrReferenceSpaceUnsupported    Result = -31
	ErrFormFactorUnsupported        Result = -34
	ErrFormFactorUnavailable        Result = -35
	ErrCallOrderInvalid             Result = -37
	ErrPoseInvalid                  Result = -39
	ErrIndexOutOfRange              Result = -40
	ErrViewConfigurationUnsupported Result = -41
	ErrBlendModeUnsupported         Result = -42
	ErrNameDuplicated               Result = -44
	ErrNameInvalid                  Result = -45
	ErrActionsetNotAttached         Result = -46
	ErrActionsetsAlreadyAttached    Result = -47
	ErrLocalizedNameDuplicated      Result = -48
	ErrLocalizedNameInvalid         Result = -49
)

var resultNames = map[Result]string{
	Success:                         "SUCCESS",
	TimeoutExpired:                  "TIMEOUT_EXPIRED",
	SessionLossPending:              "SESSION_LOSS_PENDING",
	EventUnavailable:                "EVENT_UNAVAILABLE",
	SpaceBoundsUnavailable:          "SPACE_BOUNDS_UNAVAILABLE",
	SessionNotFocused:               "SESSION_NOT_FOCUSED",
	FrameDiscarded:                  "FRAME_DISCARDED",
	ErrValidationFailure:            "ERROR_VALIDATION_FAILURE",
	ErrRuntimeFailure:               "ERROR_RUNTIME_FAILURE",
	ErrOutOfMemory:                  "ERROR_OUT_OF_MEMORY",
	ErrAPIVersionUnsupported:        "ERROR_API_VERSION_UNSUPPORTED",
	ErrInitializationFailed:         "ERROR_INITIALIZATION_FAILED",
	ErrFunctionUnsupported:          "ERROR_FUNCTION_UNSUPPORTED",
	ErrFeatureUnsupported:           "ERROR_FEATURE_UNSUPPORTED",
	ErrLimitReached:                 "ERROR_LIMIT_REACHED",
	ErrSizeInsufficient:             "ERROR_SIZE_INSUFFICIENT",
	ErrHandleInvalid:                "ERROR_HANDLE_INVALID",
	ErrInstanceLost:                 "ERROR_INSTANCE_LOST",
	ErrSessionRunning:               "ERROR_SESSION_RUNNING",
	ErrSessionNotRunning:            "ERROR_SESSION_NOT_RUNNING",
	ErrSessionLost:                  "ERROR_SESSION_LOST",
	ErrSystemInvalid:                "ERROR_SYSTEM_INVALID",
	ErrPathInvalid:                  "ERROR_PATH_INVALID",
	ErrPathCountExceeded:            "ERROR_PATH_COUNT_EXCEEDED",
	ErrPathFormatInvalid:            "ERROR_PATH_FORMAT_INVALID",
	ErrPathUnsupported:              "ERROR_PATH_UNSUPPORTED",
	ErrLayerInvalid:                 "ERROR_LAYER_INVALID",
	ErrLayerLimitExceeded:           "ERROR_LAYER_LIMIT_EXCEEDED",
	ErrSwapchainRectInvalid:         "ERROR_SWAPCHAIN_RECT_INVALID",
	ErrSwapchainFormatUnsupported:   "ERROR_SWAPCHAIN_FORMAT_UNSUPPORTED",
	ErrActionTypeMismatch:           "ERROR_ACTION_TYPE_MISMATCH",
	ErrSessionNotReady:              "ERROR_SESSION_NOT_READY",
	ErrSessionNotStopping:           "ERROR_SESSION_NOT_STOPPING",
	ErrTimeInvalid:                  "ERROR_TIME_INVALID",
	ErrReferenceSpaceUnsupported:    "ERROR_REFERENCE_SPACE_UNSUPPORTED",
	ErrFormFactorUnsupported:        "ERROR_FORM_FACTOR_UNSUPPORTED",
	ErrFormFactorUnavailable:        "ERROR_FORM_FACTOR_UNAVAILABLE",
	ErrCallOrderInvalid:             "ERROR_CALL_ORDER_INVALID",
	ErrPoseInvalid:                  "ERROR_POSE_INVALID",
	ErrIndexOutOfRange:              "ERROR_INDEX_OUT_OF_RANGE",
	ErrViewConfigurationUnsupported: "ERROR_VIEW_CONFIGURATION_TYPE_UNSUPPORTED",
	ErrBlendModeUnsupported:         "ERROR_ENVIRONMENT_BLEND_MODE_UNSUPPORTED",
	ErrNameDuplicated:               "ERROR_NAME_DUPLICATED",
	ErrNameInvalid:                  "ERROR_NAME_INVALID",
	ErrActionsetNotAttached:         "ERROR_ACTIONSET_NOT_ATTACHED",
	ErrActionsetsAlreadyAttached:    "ERROR_ACTIONSETS_ALREADY_ATTACHED",
	ErrLocalizedNameDuplicated:      "ERROR_LOCALIZED_NAME_DUPLICATED",
	ErrLocalizedNameInvalid:         "ERROR_LOCALIZED_NAME_INVALID",
}

// String returns the canonical name of the result code.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RESULT_%d", int(r))
}

// Error makes negative results usable directly as Go errors.
func (r Result) Error() string {
	return r.String()
}

// IsError reports whether r is an error code.
func (r Result) IsError() bool {
	return r < 0
}

// Succeeded reports whether r is a success code, qualified or not.
func (r Result) Succeeded() bool {
	return r >= 0
}

// Resultf wraps a result code with a formatted context message. The
// returned error matches r under errors.Is.
func Resultf(r Result, format string, args ...any) error {
	return &resultError{code: r, msg: fmt.Sprintf(format, args...)}
}

type resultError struct {
	code Result
	msg  string
}

func (e *resultError) Error() string {
	return e.code.String() + ": " + e.msg
}

func (e *resultError) Unwrap() error {
	return e.code
}

// Code extracts the result code from an error produced by this package.
// Plain foreign errors map to ErrRuntimeFailure; nil maps to Success.
func Code(err error) Result {
	if err == nil {
		return Success
	}
	for {
		if r, ok := err.(Result); ok {
			return r
		}
		if re, ok := err.(*resultError); ok {
			return re.code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ErrRuntimeFailure
		}
		err = u.Unwrap()
	}
}
