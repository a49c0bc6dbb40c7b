package apperror

// AppError is a custom error type carrying an HTTP status code and a machine-readable kind.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    string // Stable identifier clients can switch on (e.g., "SlotUnavailable")
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
// This lets detailed errors built with Detail still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind != "" && e.Kind == t.Kind
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Detail returns a copy of base whose message is extended with detail.
func Detail(base *AppError, detail string) *AppError {
	return &AppError{
		Code:    base.Code,
		Kind:    base.Kind,
		Message: base.Message + ": " + detail,
		Err:     base.Err,
	}
}
