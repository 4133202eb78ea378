package descriptor

import "github.com/pkg/errors"

// Validation failures are non-fatal per file: the scanner records them
// and moves on. They are sentinel errors so callers can classify a
// failure with errors.Is regardless of wrapping.
var (
	// ErrMalformedHeader indicates a missing, unterminated, or
	// non-mapping frontmatter block.
	ErrMalformedHeader = errors.New("malformed frontmatter header")

	// ErrMissingField indicates an absent or empty required field.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidName indicates a name that fails the allowed pattern
	// (lowercase alphanumerics and hyphens, starting with an
	// alphanumeric).
	ErrInvalidName = errors.New("invalid name")

	// ErrEmptyCategories indicates a skill that declares no categories.
	// Prose-only legacy files land here: without explicit categories a
	// skill is not indexable.
	ErrEmptyCategories = errors.New("no categories declared")

	// ErrNameMismatch indicates a skill whose declared name differs
	// from its directory name. The directory name is authoritative.
	ErrNameMismatch = errors.New("declared name does not match directory name")
)
