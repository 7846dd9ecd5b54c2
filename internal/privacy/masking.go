package privacy

import (
	"strings"
	"unicode/utf8"
)

const (
	// QuestionPreviewRunes is how much of a question text may appear in logs.
	QuestionPreviewRunes = 24
	// queueIDSuffixLength is how many trailing characters of a queue id are kept.
	queueIDSuffixLength = 6
)

// MaskQuestionText truncates question text for logging. Questions are
// personal religious queries and must never be logged in full.
// Example: "Is it permissible to ..." -> "Is it permissible to ...…[truncated]"
func MaskQuestionText(text string) string {
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) <= QuestionPreviewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:QuestionPreviewRunes]) + "…[truncated]"
}

// MaskQueueID keeps enough of a queue id to correlate log lines while hiding
// the embedded creation timestamp.
// Example: "offline-1712000000000-a1b2c3d4" -> "offline-…b2c3d4"
func MaskQueueID(id string) string {
	if id == "" {
		return ""
	}

	prefix := ""
	rest := id
	if i := strings.Index(id, "-"); i > 0 {
		prefix = id[:i+1]
		rest = id[i+1:]
	}

	if len(rest) <= queueIDSuffixLength {
		return prefix + "…"
	}
	return prefix + "…" + rest[len(rest)-queueIDSuffixLength:]
}

// MaskSensitiveFields applies masking to known sensitive log fields in place
// of the raw values. Unknown fields pass through untouched.
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		s, ok := v.(string)
		if !ok {
			masked[k] = v
			continue
		}
		switch k {
		case "question_text", "text":
			masked[k] = MaskQuestionText(s)
		case "question_id", "queue_id":
			masked[k] = MaskQueueID(s)
		default:
			masked[k] = v
		}
	}
	return masked
}
