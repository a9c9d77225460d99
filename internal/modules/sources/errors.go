package sources

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a strategy failure so the resolver can apply policy without
// inspecting messages.
type ErrorKind int

// Error kinds.
const (
	// Transient covers network failures, timeouts, 5xx and unparseable responses.
	Transient ErrorKind = iota
	// AuthExpired means the provider rejected the credentials or the subscription ended.
	AuthExpired
	// NotConfigured means the strategy has no credentials and was never attempted.
	NotConfigured
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case AuthExpired:
		return "auth_expired"
	case NotConfigured:
		return "not_configured"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FetchError is the error strategies return.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with a kind.
func NewFetchError(kind ErrorKind, err error) error {
	return &FetchError{Kind: kind, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are transient.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Transient
}
