package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/zizouhuweidi/quizflow/internal/domain"
)

// Issue is a problem found in a loaded question. Issues are reported, never fatal.
type Issue struct {
	Question int    // 0-based index in the set
	Message  string
}

// CheckQuizSet checks every question in the set
func CheckQuizSet(set domain.QuizSet) []Issue {
	var issues []Issue
	for i, q := range set.Questions {
		for _, msg := range CheckQuestion(q) {
			issues = append(issues, Issue{Question: i, Message: msg})
		}
	}
	return issues
}

// CheckQuestion returns a description of every invariant the question breaks
func CheckQuestion(q domain.Question) []string {
	var problems []string

	if len(q.Options) < 2 {
		problems = append(problems, fmt.Sprintf("has %d options, want at least 2", len(q.Options)))
	}

	seen := make(map[string]bool, len(q.Options))
	for i, opt := range q.Options {
		if seen[opt] {
			problems = append(problems, fmt.Sprintf("duplicate option %q", opt))
			continue
		}
		seen[opt] = true

		for _, other := range q.Options[:i] {
			if other != opt && IsSimilarAnswer(other, opt) {
				problems = append(problems, fmt.Sprintf("options %q and %q are nearly identical", other, opt))
			}
		}
	}

	switch {
	case q.CorrectAnswer == "":
		problems = append(problems, "no option is marked correct")
	case !q.HasOption(q.CorrectAnswer):
		problems = append(problems, fmt.Sprintf("correct answer %q is not an option", q.CorrectAnswer))
	}

	return problems
}

// NormalizeAnswer lowercases an answer, drops a leading article, strips
// punctuation and collapses whitespace
func NormalizeAnswer(answer string) string {
	answer = strings.ToLower(strings.TrimSpace(answer))

	for _, prefix := range []string{"the ", "a ", "an "} {
		answer = strings.TrimPrefix(answer, prefix)
	}

	var result strings.Builder
	for _, r := range answer {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// IsSimilarAnswer reports whether two option texts would read as the same
// answer to a player
func IsSimilarAnswer(answer1, answer2 string) bool {
	a := []rune(NormalizeAnswer(answer1))
	b := []rune(NormalizeAnswer(answer2))

	if string(a) == string(b) {
		return true
	}
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	// Close spellings: fewer edits than 20% of the longer text
	distance := levenshteinDistance(a, b)
	return float64(distance)/float64(max(len(a), len(b))) < 0.2
}

func levenshteinDistance(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			if s1[i-1] == s2[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min(
					prev[j]+1,   // deletion
					curr[j-1]+1, // insertion
					prev[j-1]+1, // substitution
				)
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
