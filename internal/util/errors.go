package util

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")

	ErrPaperNotFound          = errors.New("exam paper not found")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrSubjectNotFound        = errors.New("subject not found")
	ErrProgressNotFound       = errors.New("practice progress not found")
	ErrSessionNotFound        = errors.New("practice session not found")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrSubmissionFinalized    = errors.New("submission already finalized")
	ErrQuestionNotInPaper     = errors.New("question is not part of this paper")
	ErrOptionNotInQuestion    = errors.New("option does not belong to question")
	ErrInvalidDifficulty      = errors.New("invalid difficulty")
	ErrInvalidQuestionCount   = errors.New("questionCount must be positive")
	ErrStorageNotConfigured   = errors.New("object storage not configured")
	ErrResultsNotYetAvailable = errors.New("results are available after finalize")
)

// ErrForbidden is the ownership failure surfaced as 403.
var ErrForbidden = ErrPermissionDenied

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrPaperNotFound,
		ErrSubmissionNotFound,
		ErrQuestionNotFound,
		ErrSubjectNotFound,
		ErrProgressNotFound,
		ErrSessionNotFound,
		ErrUnsupportedContentType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsBadRequest reports whether err is a caller input error.
func IsBadRequest(err error) bool {
	for _, target := range []error{
		ErrInvalidArgument,
		ErrQuestionNotInPaper,
		ErrOptionNotInQuestion,
		ErrInvalidDifficulty,
		ErrInvalidQuestionCount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
