package service

import "errors"

// Failure kinds surfaced by the analysis and versioning core. Handlers map
// these to transport-level responses with errors.Is; nothing in this package
// returns an undifferentiated generic error for these conditions.
var (
	// ErrNotFound means the contract, version, or review is absent or not
	// owned by the caller's organization.
	ErrNotFound = errors.New("record not found")

	// ErrExtractionFailed means the binary could not be parsed at all
	// (corrupt or password-protected file).
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrInvalidExtraction means extraction succeeded but yielded unusable
	// text, typically a scanned-image PDF with no text layer. Recovered
	// internally by falling back to the mock engine.
	ErrInvalidExtraction = errors.New("extracted text is unusable")

	// ErrAnalysisFailed means the model call errored or timed out.
	ErrAnalysisFailed = errors.New("AI analysis failed")

	// ErrAnalysisParseError means the model responded but no valid JSON
	// object could be extracted from the response.
	ErrAnalysisParseError = errors.New("AI response contained no valid JSON")

	// ErrConcurrentVersionConflict means two writers raced to create the
	// same version number and this writer lost even after a retry.
	ErrConcurrentVersionConflict = errors.New("concurrent version conflict")
)
