package validation

import (
	"strings"
)

// ContentVerdict is the outcome of screening a question before submission.
type ContentVerdict int

const (
	// ContentClean means the question passed every check.
	ContentClean ContentVerdict = iota
	// ContentWarn means the question looks borderline but may be submitted.
	ContentWarn
	// ContentReject means the question is refused outright.
	ContentReject
)

// ContentCheck carries the verdict plus the pattern that triggered it.
type ContentCheck struct {
	Verdict ContentVerdict
	Matched string
}

// Patterns that mark a submission as spam or advertising. Matching is
// case-insensitive on the whole text.
var rejectPatterns = []string{
	"http://",
	"https://",
	"www.",
	"buy now",
	"click here",
	"free money",
	"promo code",
	"视频",
}

// Patterns that are allowed through with a warning so moderators can review.
var warnPatterns = []string{
	"whatsapp",
	"telegram",
	"phone number",
	"call me",
}

// CheckQuestionContent screens a question for spam and contact-solicitation
// patterns. Rejections are final; warnings let the submission proceed.
func CheckQuestionContent(text string) ContentCheck {
	lowered := strings.ToLower(text)

	for _, p := range rejectPatterns {
		if strings.Contains(lowered, p) {
			return ContentCheck{Verdict: ContentReject, Matched: p}
		}
	}

	for _, p := range warnPatterns {
		if strings.Contains(lowered, p) {
			return ContentCheck{Verdict: ContentWarn, Matched: p}
		}
	}

	return ContentCheck{Verdict: ContentClean}
}
