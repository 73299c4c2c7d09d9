package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared across the engine. Only ErrInvalidArgument (and its
// wrappers) may escape the orchestrator; everything else is absorbed into
// fallback responses.
var (
	// ErrNotFound marks point lookups of unknown ids. Non-fatal.
	ErrNotFound = goerr.New("not found")

	// ErrInvalidArgument marks programmer errors such as a malformed
	// request kind. Raised immediately, never swallowed.
	ErrInvalidArgument = goerr.New("invalid argument")

	// ErrDimensionMismatch marks a vector whose dimension disagrees with
	// the index. Treated as an InvalidArgument-class failure.
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")

	// ErrEmbedding marks a failure in the injected embedding port.
	ErrEmbedding = goerr.New("embedding failed")

	// ErrSynthesis marks a failure in the injected answer-synthesis port.
	ErrSynthesis = goerr.New("answer synthesis failed")
)
