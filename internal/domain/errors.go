package domain

import (
	"errors"
	"fmt"
)

// ErrNoData indicates there is nothing to report: no snapshot exists, or no targets are configured.
// It is distinct from an empty result.
var ErrNoData = errors.New("no data")

// Kind classifies an error for callers and adapters.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a typed error carrying the identifier of the offending entity or field.
type Error struct {
	Kind   Kind
	Entity string // snapshot, asset, target, date, amount, symbol...
	ID     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %s", e.Entity, e.Kind, msg)
	}
	return fmt.Sprintf("%s %q %s: %s", e.Entity, e.ID, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFoundError reports a missing entity.
func NotFoundError(entity, id string) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Msg: "not found"}
}

// ConflictError reports an entity that already exists.
func ConflictError(entity, id, msg string) error {
	return &Error{Kind: KindConflict, Entity: entity, ID: id, Msg: msg}
}

// ValidationError reports invalid input. It is raised before anything is persisted.
func ValidationError(field, value, msg string) error {
	return &Error{Kind: KindValidation, Entity: field, ID: value, Msg: msg}
}

// UpstreamError wraps a failure of the external price provider for one symbol.
func UpstreamError(symbol string, err error) error {
	return &Error{Kind: KindUpstream, Entity: "price", ID: symbol, Err: err}
}

// KindOf returns the kind of err. ErrNoData is reported as KindNotFound; untyped errors as KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if errors.Is(err, ErrNoData) {
		return KindNotFound
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
