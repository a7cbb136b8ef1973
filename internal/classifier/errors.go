package classifier

import (
	"errors"

	"traceScope/internal/metadata"
)

// Classification error kinds, in order of increasing severity. Only
// ErrConflict and registry misconfiguration are fatal; everything else
// degrades a single frame to Unclassified and the block continues.
var (
	// ErrNotRecognized means no decoder matched the frame.
	ErrNotRecognized = errors.New("not recognized")

	// ErrDecode means ABI or log decoding failed despite a match.
	ErrDecode = errors.New("decode failed")

	// ErrMissingMetadata means a protocol or token lookup returned
	// nothing mid-decode.
	ErrMissingMetadata = errors.New("missing metadata")

	// ErrArithmetic means amount math over- or underflowed.
	ErrArithmetic = errors.New("arithmetic error")

	// ErrIncompleteRewrite means a multi-frame rewrite found no
	// matching descendants. The anchor is kept unchanged.
	ErrIncompleteRewrite = errors.New("incomplete rewrite")

	// ErrConflict means discovery tried to register incompatible data
	// for an existing address. Fatal for the block.
	ErrConflict = metadata.ErrConflict
)
