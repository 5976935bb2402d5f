// Package match computes the resume-to-job matching score: the percentage of
// a job posting's distinct word tokens that also appear in the resume text.
package match

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// minTokenLen is the shortest token that survives tokenization. Anything of
// length <= 2 (articles, single letters, "of", "to") is treated as noise.
const minTokenLen = 3

// Tokenize lowercases text and splits it into a set of word tokens, where a
// token is a maximal run of letters and digits. Punctuation never survives
// as part of a token. Duplicates collapse; empty input yields an empty set.
func Tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		if w := word.String(); len([]rune(w)) >= minTokenLen {
			tokens[w] = true
		}
		word.Reset()
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// JobFields carries the textual fields of a posting that make up its corpus.
// Missing fields are empty strings, never an error.
type JobFields struct {
	Title       string
	Company     string
	Location    string
	Description string
	SearchKey   string
}

// Corpus joins the non-empty fields with a single space, in fixed order.
func Corpus(job JobFields) string {
	parts := make([]string, 0, 5)
	for _, s := range []string{job.Title, job.Company, job.Location, job.Description, job.SearchKey} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Score computes the overlap between pre-tokenized resume text and a job.
// Tokenize the resume once per batch and reuse the set for every posting.
//
// The denominator is the job corpus token count: the score answers "what
// fraction of this job's vocabulary does my resume cover", not the reverse.
// Returns the percentage in [0,100] rounded to two decimals (half away from
// zero) and the sorted intersection tokens. Either side empty scores 0.
func Score(resumeTokens map[string]bool, job JobFields) (float64, []string) {
	jobTokens := Tokenize(Corpus(job))
	if len(resumeTokens) == 0 || len(jobTokens) == 0 {
		return 0, nil
	}

	var matched []string
	for tok := range jobTokens {
		if resumeTokens[tok] {
			matched = append(matched, tok)
		}
	}
	sort.Strings(matched)

	score := round2(float64(len(matched)) / float64(len(jobTokens)) * 100)
	return score, matched
}

// ScoreText is the single-call variant used at query time.
func ScoreText(resumeText string, job JobFields) (float64, []string) {
	return Score(Tokenize(resumeText), job)
}

// round2 rounds to two decimals, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
