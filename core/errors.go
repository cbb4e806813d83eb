package core

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking.
var (
	ErrInvalidScope = errors.New("invalid file scope")
	ErrRead         = errors.New("read failed")
	ErrParse        = errors.New("parse failed")
	ErrNoPattern    = errors.New("snippet produced no pattern")
	ErrQueryCompile = errors.New("query compilation failed")
	ErrWorker       = errors.New("search worker failed")
)

// ErrorCode provides a machine-readable error type for JSON output.
type ErrorCode string

const (
	ECNone          ErrorCode = ""
	ECInvalidScope  ErrorCode = "ERR_INVALID_SCOPE"
	ECReadError     ErrorCode = "ERR_READ_FILE"
	ECParseError    ErrorCode = "ERR_PARSE"
	ECNoPattern     ErrorCode = "ERR_NO_PATTERN"
	ECQueryCompile  ErrorCode = "ERR_QUERY_COMPILE"
	ECWorkerFailure ErrorCode = "ERR_WORKER"
	ECCanceled      ErrorCode = "ERR_CANCELED"
	ECUnknown       ErrorCode = "ERR_UNKNOWN"
)

// FileOp names the per-file step that failed
type FileOp string

const (
	OpRead  FileOp = "read"
	OpParse FileOp = "parse"
)

// FileError reports a read or parse failure for a single file
type FileError struct {
	Op   FileOp
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Op, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRead) and errors.Is(err, ErrParse) see the step
func (e *FileError) Is(target error) bool {
	switch target {
	case ErrRead:
		return e.Op == OpRead
	case ErrParse:
		return e.Op == OpParse
	}
	return false
}

func readError(path string, err error) error {
	return &FileError{Op: OpRead, Path: path, Err: err}
}

func parseError(path string, err error) error {
	return &FileError{Op: OpParse, Path: path, Err: err}
}

// QueryCompileError is returned when the query engine rejects a generated pattern
type QueryCompileError struct {
	Pattern string
	Offset  uint32
	Kind    string
	Err     error
}

func (e *QueryCompileError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%v: %s error at offset %d: %v", ErrQueryCompile, e.Kind, e.Offset, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrQueryCompile, e.Err)
}

func (e *QueryCompileError) Unwrap() []error { return []error{ErrQueryCompile, e.Err} }

// WorkerError wraps the failure of one matching shard
type WorkerError struct {
	Shard int
	Err   error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("shard %d: %v", e.Shard, e.Err)
}

func (e *WorkerError) Unwrap() []error { return []error{ErrWorker, e.Err} }

// Code maps an error returned by this package to its ErrorCode
func Code(err error) ErrorCode {
	switch {
	case err == nil:
		return ECNone
	case errors.Is(err, ErrInvalidScope):
		return ECInvalidScope
	case errors.Is(err, ErrRead):
		return ECReadError
	case errors.Is(err, ErrParse):
		return ECParseError
	case errors.Is(err, ErrNoPattern):
		return ECNoPattern
	case errors.Is(err, ErrQueryCompile):
		return ECQueryCompile
	case errors.Is(err, ErrWorker):
		return ECWorkerFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ECCanceled
	}
	return ECUnknown
}
