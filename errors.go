package n64rd

import (
	"errors"
	"fmt"
	"runtime"
)

// errClosed is returned (wrapped) when an operation is attempted against
// an already-closed backend or session.
var errClosed = errors.New("already closed")

// Kind classifies the failure modes the protocol engine can produce.
type Kind int

const (
	KindUnknown Kind = iota
	KindPortUnavailable
	KindUnsupported
	KindTimeout
	KindChecksumMismatch
	KindWrongMode
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindPortUnavailable:
		return "port unavailable"
	case KindUnsupported:
		return "unsupported"
	case KindTimeout:
		return "timeout"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindWrongMode:
		return "wrong mode"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// Error is the driver's error type. It carries the failure Kind plus the
// file, line and function of the call site that raised it, the idiomatic
// Go stand-in for the original C sources' `ERRORPRINT`/`DEBUGPRINT` macros
// (`%s:%d, %s() ERROR: ...`).
type Error struct {
	Kind Kind
	File string
	Line int
	Func string
	Err  error

	// Received/Expected are populated only for KindChecksumMismatch.
	Received uint8
	Expected uint8
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Kind == KindChecksumMismatch {
		msg = fmt.Sprintf("checksum mismatch: received=0x%02X expected=0x%02X", e.Received, e.Expected)
	}
	return fmt.Sprintf("%s:%d, %s() ERROR: %s", e.File, e.Line, e.Func, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// newError captures the site of newError's direct caller (skip 2 steps
// over newErrorSkip and newError itself) and wraps err.
func newError(kind Kind, err error) *Error {
	return newErrorSkip(2, kind, err)
}

func newErrorSkip(skip int, kind Kind, err error) *Error {
	file, line, fn := "???", 0, "???"
	if pc, f, l, ok := runtime.Caller(skip); ok {
		file, line = f, l
		if rf := runtime.FuncForPC(pc); rf != nil {
			fn = shortFuncName(rf.Name())
		}
	}
	return &Error{Kind: kind, File: file, Line: line, Func: fn, Err: err}
}

// shortFuncName strips the package path, keeping receiver/func name, e.g.
// "github.com/parasyte/n64rd.(*Session).Read" -> "(*Session).Read".
func shortFuncName(full string) string {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '/' {
			for j := i + 1; j < len(full); j++ {
				if full[j] == '.' {
					return full[j+1:]
				}
			}
			break
		}
	}
	for i := 0; i < len(full); i++ {
		if full[i] == '.' {
			return full[i+1:]
		}
	}
	return full
}

// errTimeout builds a KindTimeout error rooted at the caller of
// errTimeout itself (i.e. the step that actually detected the
// exhausted poll budget — exchangeNibble, enter, or dispatch — not
// whatever called that step in turn).
func errTimeout(op string) *Error {
	return newErrorSkip(2, KindTimeout, fmt.Errorf("%s: exceeded poll budget", op))
}

// errChecksum builds a KindChecksumMismatch error rooted at the caller
// of errChecksum itself (blockTransfer or ReadROM), for the same reason.
func errChecksum(received, expected uint8) *Error {
	e := newErrorSkip(2, KindChecksumMismatch, nil)
	e.Received = received
	e.Expected = expected
	return e
}
