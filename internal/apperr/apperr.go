// Package apperr defines the error taxonomy shared by the repository, the
// upload store, and the HTTP layer. Callers decide behavior by switching on
// the error kind, never by inspecting message text.
package apperr

import "errors"

// Kind classifies an application error.
type Kind int

const (
	// Validation covers malformed or out-of-range field values.
	Validation Kind = iota + 1
	// Conflict covers a duplicate contact number or email.
	Conflict
	// NotFound covers references to a record id that does not exist.
	NotFound
	// Upload covers files failing type or extension checks, and I/O
	// failures while storing an upload.
	Upload
	// MissingImage covers creation attempts with neither a file nor a
	// picture value.
	MissingImage
	// NoFields covers update attempts carrying no effective changes.
	NoFields
	// PayloadTooLarge covers request bodies over the configured limit.
	PayloadTooLarge
	// Internal covers everything unclassified.
	Internal
)

// String returns the error category reported to API clients.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation error"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not found"
	case Upload:
		return "upload error"
	case MissingImage:
		return "missing image"
	case NoFields:
		return "no fields"
	case PayloadTooLarge:
		return "payload too large"
	default:
		return "internal error"
	}
}

// Error is an application error carrying a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or Internal if err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
