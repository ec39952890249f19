package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowercaser folds with Turkish casing rules so the dotted/dotless "I"
// pair comes out right: İ -> i and I -> ı. Naive ASCII lowering would
// collapse all four forms onto "i" and break answer matching.
var lowercaser = cases.Lower(language.Turkish)

// Normalize produces the comparison key for an answer: surrounding
// whitespace stripped, locale-correct lowercase. Every equality check in
// the game (correctness, duplicates, own-answer, reactions) goes through
// this so display casing never leaks into matching.
func Normalize(answer string) string {
	return lowercaser.String(strings.TrimSpace(answer))
}

// Matches reports whether userAnswer is correct for the question:
// either it normalizes to the correct answer, or to one of the entries
// in the comma-delimited acceptable-answers list.
func Matches(userAnswer, correctAnswer, acceptableAnswers string) bool {
	normalized := Normalize(userAnswer)
	if normalized == "" {
		return false
	}
	if normalized == Normalize(correctAnswer) {
		return true
	}
	if acceptableAnswers == "" {
		return false
	}
	for _, alt := range strings.Split(acceptableAnswers, ",") {
		if alt = Normalize(alt); alt != "" && normalized == alt {
			return true
		}
	}
	return false
}
