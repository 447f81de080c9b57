// Package ierrors collects the sentinel error kinds shared across the
// on-disk decoder: page I/O, record/type decoding, dictionary resolution,
// and log reading all fail with one of these, wrapped (via
// github.com/pkg/errors) with enough context to name the failing page,
// offset, or field.
package ierrors

import "github.com/pkg/errors"

var (
	// ErrPageReadError: file too short for the requested page, or the
	// page number is out of range for the space.
	ErrPageReadError = errors.New("page read error")

	// ErrPageTypeMismatch: e.g. an index root is not an INDEX page, a
	// root page carries prev/next pointers, or an inode page isn't INODE.
	ErrPageTypeMismatch = errors.New("page type mismatch")

	// ErrOutOfBounds: a cursor read ran past the end of its slice.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrUnsupportedFormat: the requested record/page format isn't
	// implemented (e.g. compressed INDEX pages).
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnsupportedType: a data type token isn't in the registry.
	ErrUnsupportedType = errors.New("unsupported data type")

	// ErrDictionaryNotFound: the SYS_* indexes aren't populated in the
	// system space.
	ErrDictionaryNotFound = errors.New("dictionary not found")

	// ErrMissingTable: a table lookup failed.
	ErrMissingTable = errors.New("missing table")

	// ErrMissingIndex: an index lookup failed.
	ErrMissingIndex = errors.New("missing index")

	// ErrChecksum: a log block's stored checksum didn't match the
	// computed one (only raised when checksum verification is enabled).
	ErrChecksum = errors.New("checksum mismatch")

	// ErrEndOfLog: the log reader reached the end of the available
	// stream.
	ErrEndOfLog = errors.New("end of log")

	// ErrUnsupportedRecordType: a redo log record type tag isn't known.
	ErrUnsupportedRecordType = errors.New("unsupported record type")
)

// Wrapf attaches positional context (page number, offset, field name, ...)
// to one of the sentinel errors above while keeping it matchable with
// errors.Is / errors.Cause.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
