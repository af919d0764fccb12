package qa

import "github.com/teakb/teakb/internal/types"

// QA pipeline error codes
const (
	ErrCodeTranslationFailed types.ErrorCode = "QA_TRANSLATION_FAILED"
	ErrCodeCompositionFailed types.ErrorCode = "QA_COMPOSITION_FAILED"
	ErrCodeQuestionRejected  types.ErrorCode = "QA_QUESTION_REJECTED"
	ErrCodeInvalidQuestion   types.ErrorCode = "QA_INVALID_QUESTION"
)
