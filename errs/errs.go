// Package errs implements the error taxonomy shared by the field codec,
// paged resource layer, cache, and B+-Tree index: a closed set of kinds
// (§6/§7 of the design), each a sentinel that callers can test for with
// errors.Is while the original cause (I/O error, format violation, ...)
// stays attached via github.com/pkg/errors wrapping.
package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is one of the closed set of failure categories at the storage
// boundary. No error crosses a package boundary without one.
type Kind int

const (
	// IO covers transient or fatal failures talking to the underlying file:
	// short reads, failed locks, failed writes.
	IO Kind = iota
	// PageFormat covers persistent, structural corruption discovered while
	// parsing a page (bad magic, inconsistent header fields).
	PageFormat
	// IndexCorrupt covers structural violations discovered opportunistically
	// while walking the tree (empty node on descent, sort-order violation).
	IndexCorrupt
	// Duplicate is returned by Insert on a unique index when the key is
	// already present.
	Duplicate
	// BadFormat is returned by field parsing (fromString) on malformed input
	// or overflow.
	BadFormat
	// PageExpired is returned when a page handle is used after its resource
	// was expelled from the cache.
	PageExpired
	// CachePinned is returned when eviction has no unpinned candidate.
	CachePinned
	// DuplicateCacheEntry is returned by addPage when the key is already
	// resident.
	DuplicateCacheEntry
	// IllegalOperation is returned when an operation is invalid for a kind,
	// e.g. arithmetic on a non-arithmetic field, or RID parsed from a string.
	IllegalOperation
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "IO"
	case PageFormat:
		return "PageFormat"
	case IndexCorrupt:
		return "IndexCorrupt"
	case Duplicate:
		return "Duplicate"
	case BadFormat:
		return "BadFormat"
	case PageExpired:
		return "PageExpired"
	case CachePinned:
		return "CachePinned"
	case DuplicateCacheEntry:
		return "DuplicateCacheEntry"
	case IllegalOperation:
		return "IllegalOperation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// kindError pairs a Kind with a message and, optionally, a wrapped cause.
type kindError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *kindError) Unwrap() error { return e.cause }

// New creates a new error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to an existing cause, preserving a stack
// trace via github.com/pkg/errors so the original failure site is
// recoverable in logs even after the kind-based dispatch above it.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...), cause: pkgerrors.WithStack(cause)}
}

// KindOf returns the Kind attached to err, walking Unwrap chains, and false
// if err (or anything it wraps) was not produced by this package.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return 0, false
}

// Is reports whether err is (or wraps) an error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Cause unwraps err down to its root cause, the way pkg/errors.Cause does,
// skipping the kindError wrapper(s) added by this package.
func Cause(err error) error {
	for {
		ke, ok := err.(*kindError)
		if !ok || ke.cause == nil {
			return err
		}
		err = pkgerrors.Cause(ke.cause)
	}
}
