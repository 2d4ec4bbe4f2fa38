package validation

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/util"
)

// MaxTextLength bounds pasted source text, in characters.
const MaxTextLength = 20000

var allowedImageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateText checks pasted source text. Blank text is allowed; it simply
// cannot be turned into a quiz.
func (v *Validator) ValidateText(text string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if !utf8.ValidString(text) {
		errors = append(errors, domain.NewInvalidFormatError("text", "invalid UTF-8"))
	} else if n := utf8.RuneCountInString(text); n > MaxTextLength {
		errors = append(errors, domain.NewOutOfRangeError("text", n, 0, MaxTextLength))
	}
	return errors
}

// ValidateLevel checks the difficulty selector value.
func (v *Validator) ValidateLevel(level string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if _, err := domain.ParseQuizLevel(level); err != nil {
		errors = append(errors, domain.NewInvalidFormatError("level", level))
	}
	return errors
}

// ValidateAnswer checks a question index and option letter. Whether the
// index exists in the current quiz is decided by the quiz flow.
func (v *Validator) ValidateAnswer(indexParam, letter string) (int, domain.ValidationErrors) {
	index, errors := v.ValidateIndex(indexParam)
	if strings.TrimSpace(letter) == "" {
		errors = append(errors, domain.NewMissingFieldError("option"))
	} else if !isOptionLetter(letter) {
		errors = append(errors, domain.NewInvalidFormatError("option", letter))
	}
	return index, errors
}

// ValidateIndex checks a question index path parameter.
func (v *Validator) ValidateIndex(indexParam string) (int, domain.ValidationErrors) {
	index, err := strconv.Atoi(indexParam)
	if err != nil || index < 0 {
		return 0, domain.ValidationErrors{domain.NewInvalidFormatError("index", indexParam)}
	}
	return index, nil
}

// ValidateImageUpload checks the metadata of an uploaded image file.
func (v *Validator) ValidateImageUpload(filename, contentType string, size int64, maxBytes int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(filename) == "" {
		errors = append(errors, domain.NewMissingFieldError("image"))
		return errors
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		errors = append(errors, domain.NewInvalidFormatError("image", filename))
	}
	if contentType != "" && !allowedImageTypes[strings.ToLower(contentType)] {
		errors = append(errors, domain.NewInvalidFormatError("content_type", contentType))
	}
	if size <= 0 {
		errors = append(errors, domain.NewMissingFieldError("image"))
	} else if maxBytes > 0 && size > int64(maxBytes) {
		errors = append(errors, domain.NewOutOfRangeError("image", size, 1, maxBytes))
	}
	return errors
}

// ValidateSessionID checks that id is a canonical ULID.
func (v *Validator) ValidateSessionID(id string) domain.ValidationErrors {
	if !util.IsULID(id) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("session_id", id)}
	}
	return nil
}

func isOptionLetter(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, letter := range domain.OptionLetters {
		if s == letter {
			return true
		}
	}
	return false
}
