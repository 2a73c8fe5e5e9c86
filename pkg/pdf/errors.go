package pdf

import (
	"fmt"
	"log"
	"os"
)

// StructureKind classifies fatal document-structure failures.
type StructureKind int

const (
	// NotAPdf means the source has neither a PDF header nor any recoverable
	// object pattern.
	NotAPdf StructureKind = iota
	// MissingRoot means no usable catalog dictionary could be resolved, even
	// after recovery.
	MissingRoot
	// InvalidPageTree means the page tree root is unreadable.
	InvalidPageTree
)

func (k StructureKind) String() string {
	switch k {
	case NotAPdf:
		return "not a PDF"
	case MissingRoot:
		return "missing document root"
	case InvalidPageTree:
		return "invalid page tree"
	}
	return "structure error"
}

// StructureError reports a fatal failure while locating or validating the
// document structure. It aborts the open operation.
type StructureError struct {
	Kind StructureKind
	Err  error
}

func (e *StructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf: %s: %v", e.Kind, e.Err)
	}
	return "pdf: " + e.Kind.String()
}

func (e *StructureError) Unwrap() error { return e.Err }

func structureErr(kind StructureKind, format string, args ...interface{}) error {
	if format == "" {
		return &StructureError{Kind: kind}
	}
	return &StructureError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ObjectError reports that a single indirect object could not be parsed. The
// resolver records it and continues with a partial graph.
type ObjectError struct {
	Number     int
	Generation int
	Err        error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("pdf: object %d %d: %v", e.Number, e.Generation, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }

// CodecKind classifies filter pipeline failures.
type CodecKind int

const (
	// UnknownFilter means the stream names a filter this package does not
	// recognize.
	UnknownFilter CodecKind = iota
	// Corrupt means the encoded data is malformed and no output could be
	// produced. Decoders that already produced output truncate instead.
	Corrupt
	// CodecUnavailable means the filter delegates to an injected codec that
	// has not been registered.
	CodecUnavailable
	// EncodeUnsupported means the filter has no encode path.
	EncodeUnsupported
)

func (k CodecKind) String() string {
	switch k {
	case UnknownFilter:
		return "unknown filter"
	case Corrupt:
		return "corrupt data"
	case CodecUnavailable:
		return "codec unavailable"
	case EncodeUnsupported:
		return "encode unsupported"
	}
	return "codec error"
}

// CodecError reports a filter pipeline failure.
type CodecError struct {
	Filter Name
	Kind   CodecKind
	Err    error
}

func (e *CodecError) Error() string {
	msg := fmt.Sprintf("pdf: filter %s: %s", e.Filter, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CodecError) Unwrap() error { return e.Err }

// FontLoadError reports that a font program could not be read or parsed. The
// resolver treats it as "no font found".
type FontLoadError struct {
	Path string
	Err  error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("pdf: load font %s: %v", e.Path, e.Err)
}

func (e *FontLoadError) Unwrap() error { return e.Err }

// DebugOn enables diagnostic logging for recovery and lenient decode paths.
var DebugOn = false

var debugLogger = log.New(os.Stderr, "pdf: ", 0)

func debugf(format string, args ...interface{}) {
	if DebugOn {
		debugLogger.Printf(format, args...)
	}
}
