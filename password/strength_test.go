package password

import (
	"slices"
	"strings"
	"testing"
)

func TestEvaluateCommonPatternWithAllClasses(t *testing.T) {
	got := Evaluate("Password123!")

	if !slices.Contains(got.Feedback, FeedbackCommonPattern) {
		t.Fatalf("expected common pattern feedback, got %v", got.Feedback)
	}
	if len(got.Feedback) != 1 {
		t.Fatalf("expected only the pattern feedback, got %v", got.Feedback)
	}
	if got.Score != MaxScore {
		t.Fatalf("expected clamped score %d, got %d", MaxScore, got.Score)
	}
	if got.IsValid {
		t.Fatal("expected weak pattern to make password invalid")
	}
}

func TestEvaluateTable(t *testing.T) {
	cases := []struct {
		name     string
		password string
		score    int
		valid    bool
		feedback []string
	}{
		{"empty", "", 0, false, []string{FeedbackTooShort, FeedbackNoLower, FeedbackNoUpper, FeedbackNoDigit, FeedbackNoSymbol}},
		{"strong", "Tr0ub4dor&Xyz", 5, true, nil},
		{"short but varied", "Zx9!kq", 4, false, []string{FeedbackTooShort}},
		{"eight chars four classes", "Bcdefg1!", 5, true, nil},
		{"repeated run", "Xyzzz9!abcd", 4, false, []string{FeedbackRepeated}},
		{"case insensitive pattern", "QWERTYuiop9!", 5, false, []string{FeedbackCommonPattern}},
		{"lower only", "lowercaseonly", 3, false, []string{FeedbackNoUpper, FeedbackNoDigit, FeedbackNoSymbol}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.password)
			if got.Score != tc.score {
				t.Fatalf("score = %d, want %d (feedback %v)", got.Score, tc.score, got.Feedback)
			}
			if got.IsValid != tc.valid {
				t.Fatalf("valid = %v, want %v", got.IsValid, tc.valid)
			}
			if len(got.Feedback) != len(tc.feedback) {
				t.Fatalf("feedback = %v, want %v", got.Feedback, tc.feedback)
			}
			for _, want := range tc.feedback {
				if !slices.Contains(got.Feedback, want) {
					t.Fatalf("feedback %v missing %q", got.Feedback, want)
				}
			}
		})
	}
}

func TestEvaluateScoreNeverNegative(t *testing.T) {
	got := Evaluate("aaa")
	if got.Score != 0 {
		t.Fatalf("expected clamped score 0, got %d", got.Score)
	}
}

func TestGenerateContainsEveryClass(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := Generate(4)
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if len(pw) != 4 {
			t.Fatalf("unexpected length %d", len(pw))
		}
		for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
			if !strings.ContainsAny(pw, set) {
				t.Fatalf("password %q missing a character from %q", pw, set)
			}
		}
	}
}

func TestGenerateDefaultsAndLimits(t *testing.T) {
	pw, err := Generate(0)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(pw) != DefaultGeneratedLength {
		t.Fatalf("expected default length %d, got %d", DefaultGeneratedLength, len(pw))
	}
	if _, err := Generate(3); err != ErrLengthTooSmall {
		t.Fatalf("expected ErrLengthTooSmall, got %v", err)
	}
}

func TestGenerateIsNotDeterministic(t *testing.T) {
	a, _ := Generate(24)
	b, _ := Generate(24)
	if a == b {
		t.Fatal("two generated passwords should differ")
	}
}
