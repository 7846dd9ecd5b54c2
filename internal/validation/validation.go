package validation

import (
	"strings"
	"unicode/utf8"

	"fatwabox/internal/constants"
	"fatwabox/internal/errors"
	"fatwabox/internal/models"

	"github.com/go-playground/validator/v10"
)

// SubmitRequest is the payload accepted by the submission endpoint. The
// custom category is required only when the taxonomy value is "other".
type SubmitRequest struct {
	Category       string `json:"category" validate:"required,max=100"`
	CustomCategory string `json:"custom_category,omitempty" validate:"max=100"`
	QuestionText   string `json:"question_text" validate:"required,max=2000"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateSubmitRequest normalizes and validates a submission payload and
// returns the resolved category plus trimmed question text.
func ValidateSubmitRequest(req *SubmitRequest) (category, text string, err error) {
	req.Category = strings.TrimSpace(req.Category)
	req.CustomCategory = strings.TrimSpace(req.CustomCategory)
	req.QuestionText = strings.TrimSpace(req.QuestionText)

	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			field := strings.ToLower(verrs[0].Field())
			return "", "", errors.NewValidationError(field, "failed "+verrs[0].Tag()+" validation")
		}
		return "", "", errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid submission payload")
	}

	if utf8.RuneCountInString(req.QuestionText) < constants.MinQuestionLength {
		return "", "", errors.NewValidationError("question_text", "question text is required")
	}
	if utf8.RuneCountInString(req.QuestionText) > constants.MaxQuestionLength {
		return "", "", errors.NewValidationError("question_text", "question exceeds 2000 characters")
	}

	category = req.Category
	if !IsKnownCategory(category) {
		// Free-form category typed directly, as the form allows.
		if category == "" {
			return "", "", errors.NewValidationError("category", "category is required")
		}
	}
	if category == CategoryOther {
		if req.CustomCategory == "" {
			return "", "", errors.NewValidationError("custom_category", "custom category is required when category is \"other\"")
		}
		category = req.CustomCategory
	}

	return category, req.QuestionText, nil
}

// EditRequest is the payload accepted when editing a queued question.
// Both fields are optional but at least one must be present.
type EditRequest struct {
	Category     *string `json:"category,omitempty"`
	QuestionText *string `json:"question_text,omitempty"`
}

// ValidateEditRequest trims and validates an edit payload.
func ValidateEditRequest(req *EditRequest) (models.QuestionUpdate, error) {
	var update models.QuestionUpdate

	if req.Category == nil && req.QuestionText == nil {
		return update, errors.NewValidationError("body", "at least one of category or question_text is required")
	}

	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return update, errors.NewValidationError("category", "category cannot be empty")
		}
		if utf8.RuneCountInString(category) > constants.MaxCategoryLength {
			return update, errors.NewValidationError("category", "category exceeds 100 characters")
		}
		update.Category = &category
	}

	if req.QuestionText != nil {
		text := strings.TrimSpace(*req.QuestionText)
		if text == "" {
			return update, errors.NewValidationError("question_text", "question text cannot be empty")
		}
		if utf8.RuneCountInString(text) > constants.MaxQuestionLength {
			return update, errors.NewValidationError("question_text", "question exceeds 2000 characters")
		}
		update.QuestionText = &text
	}

	return update, nil
}
