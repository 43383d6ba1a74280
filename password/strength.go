package password

import (
	"strings"
	"unicode"
)

// Feedback messages emitted by Evaluate.
const (
	FeedbackTooShort      = "use at least 8 characters"
	FeedbackNoLower       = "add lowercase letters"
	FeedbackNoUpper       = "add uppercase letters"
	FeedbackNoDigit       = "add numbers"
	FeedbackNoSymbol      = "add special characters"
	FeedbackCommonPattern = "avoid common password patterns"
	FeedbackRepeated      = "avoid repeated characters"

	// MaxScore is the highest score Evaluate returns.
	MaxScore = 5
	// ValidScore is the lowest score Evaluate accepts as valid.
	ValidScore = 3
)

var weakPatterns = []string{
	"password",
	"123456",
	"qwerty",
	"abc123",
	"letmein",
	"welcome",
	"admin",
	"iloveyou",
	"monkey",
	"111111",
}

// Strength is the result of scoring a candidate password.
type Strength struct {
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
	IsValid  bool     `json:"isValid"`
}

// Evaluate scores password on a 0..5 scale.
//
// Length tiers (8, 12) and each present character class add one point; a weak
// substring or a run of three identical characters subtracts one. IsValid
// requires both a score of at least 3 and no feedback at all, so a long
// four-class password containing "password" is still invalid.
func Evaluate(password string) Strength {
	score := 0
	feedback := make([]string, 0, 4)

	length := len([]rune(password))
	if length >= DefaultMinLength {
		score++
	} else {
		feedback = append(feedback, FeedbackTooShort)
	}
	if length >= 12 {
		score++
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	classes := []struct {
		present bool
		message string
	}{
		{hasLower, FeedbackNoLower},
		{hasUpper, FeedbackNoUpper},
		{hasDigit, FeedbackNoDigit},
		{hasSymbol, FeedbackNoSymbol},
	}
	for _, class := range classes {
		if class.present {
			score++
			continue
		}
		feedback = append(feedback, class.message)
	}

	if containsWeakPattern(password) {
		score--
		feedback = append(feedback, FeedbackCommonPattern)
	}
	if hasRepeatedRun(password, 3) {
		score--
		feedback = append(feedback, FeedbackRepeated)
	}

	if score < 0 {
		score = 0
	}
	if score > MaxScore {
		score = MaxScore
	}

	return Strength{
		Score:    score,
		Feedback: feedback,
		IsValid:  score >= ValidScore && len(feedback) == 0,
	}
}

func containsWeakPattern(password string) bool {
	lower := strings.ToLower(password)
	for _, pattern := range weakPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func hasRepeatedRun(password string, n int) bool {
	run := 0
	var prev rune
	for i, r := range []rune(password) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
