// Package errors provides structured error handling for the patch engine.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Diff errors
	CodeDiffNotFound   Code = "DIFF_NOT_FOUND"
	CodeDiffNotApplied Code = "DIFF_NOT_APPLIED"

	// Hunk errors
	CodeTargetNotFound    Code = "TARGET_NOT_FOUND"
	CodeHunkPrecondition  Code = "HUNK_PRECONDITION"
	CodeHunkTypeUnknown   Code = "HUNK_TYPE_UNKNOWN"
	CodePayloadInvalid    Code = "PAYLOAD_INVALID"
	CodeLabelRequired     Code = "LABEL_REQUIRED"
	CodeLabelNotFound     Code = "LABEL_NOT_FOUND"
	CodeRevertUnavailable Code = "REVERT_UNAVAILABLE"

	// Document errors
	CodeParseInvalid Code = "PARSE_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// Lookup reports whether the code describes a lookup failure: an unknown diff,
// an unresolved target, or an unmatched labeled sub-element.
func (c Code) Lookup() bool {
	switch c {
	case CodeDiffNotFound,
		CodeDiffNotApplied,
		CodeTargetNotFound,
		CodeLabelNotFound,
		CodeNotFound:
		return true
	default:
		return false
	}
}

// Malformed reports whether the code describes caller error in authored data.
func (c Code) Malformed() bool {
	switch c {
	case CodeHunkTypeUnknown,
		CodePayloadInvalid,
		CodeLabelRequired,
		CodeParseInvalid:
		return true
	default:
		return false
	}
}
