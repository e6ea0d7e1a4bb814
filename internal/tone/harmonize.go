// Package tone post-processes model output so it keeps the Anthroi-1
// register: no simulated emotion, no roleplay formatting, bounded
// length, at most one apology.
package tone

import (
	"log/slog"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/souentd/internal/types"
)

// FallbackResponse replaces output that fails validation.
const FallbackResponse = "I encountered an issue generating an appropriate response. Could you rephrase your question?"

var emotionalPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bI feel\b`),
	regexp.MustCompile(`(?i)\bI'm excited\b`),
	regexp.MustCompile(`(?i)\bI'm sorry to hear\b`),
	regexp.MustCompile(`(?i)\bI'm happy\b`),
	regexp.MustCompile(`(?i)\bI'm sad\b`),
	regexp.MustCompile(`(?i)\bI love\b`),
	regexp.MustCompile(`(?i)\bI hate\b`),
	regexp.MustCompile(`(?i)\bI enjoy\b`),
	regexp.MustCompile(`(?i)\bI'm passionate about\b`),
}

var roleplayIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\*[^*]+\*`),
	regexp.MustCompile(`(?m)^\[.*?\]`),
}

// Neutral rewrites applied before the generic phrase check so common
// offenders get fixed instead of failing validation.
var emotionalRewrites = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bI feel that\b`), "It appears that"},
	{regexp.MustCompile(`(?i)\bI feel\b`), "Based on the information"},
	{regexp.MustCompile(`(?i)\bI'm excited to\b`), "I will"},
	{regexp.MustCompile(`(?i)\bI'm sorry to hear\b`), "That sounds difficult"},
	{regexp.MustCompile(`(?i)\bI'm sorry that\b`), "It appears that"},
}

var uncertaintyWeakeners = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bperhaps I should mention\b`), "I should mention"},
	{regexp.MustCompile(`(?i)\bI think I'm uncertain\b`), "I am uncertain"},
	{regexp.MustCompile(`(?i)\bI might be wrong but\b`), "I cannot verify, but"},
}

var (
	roleplayActions   = regexp.MustCompile(`\*[^*]+\*`)
	sceneDescriptions = regexp.MustCompile(`(?m)^\[.*?\]\s*`)
	apologyPattern    = regexp.MustCompile(`(?i)\bI apologize[^.!?]*[.!?]|\bI'm sorry[^.!?]*[.!?]`)
	apologyMarker     = regexp.MustCompile(`(?i)\bI apologize\b|\bI'm sorry\b`)
	sentenceBoundary  = regexp.MustCompile(`[.!?]\s+`)
	htmlTag           = regexp.MustCompile(`(?i)<(p|div|ul|ol|li|h[1-6]|table|pre|code|a|strong|em|br)\b`)
)

// Harmonizer applies the post-processing pipeline to raw model output.
type Harmonizer struct {
	logger *slog.Logger
}

func NewHarmonizer(logger *slog.Logger) *Harmonizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harmonizer{logger: logger}
}

// Harmonize rewrites emotional phrasing, strips roleplay formatting,
// converts stray HTML to markdown, bounds length to the user's
// preference, and collapses repeated apologies.
func (h *Harmonizer) Harmonize(response string, prefs *types.UserPreferences) string {
	out := response

	if looksLikeHTML(out) {
		if md, err := htmltomarkdown.ConvertString(out); err == nil {
			out = md
		} else {
			h.logger.Debug("html conversion failed, keeping raw output", "error", err)
		}
	}

	for _, rw := range emotionalRewrites {
		out = rw.pattern.ReplaceAllString(out, rw.replacement)
	}

	out = roleplayActions.ReplaceAllString(out, "")
	out = sceneDescriptions.ReplaceAllString(out, "")

	if prefs != nil {
		out = applyLengthLimit(out, prefs.MaxResponseLength)
	}

	for _, rw := range uncertaintyWeakeners {
		out = rw.pattern.ReplaceAllString(out, rw.replacement)
	}

	out = reduceApologies(out)

	return strings.TrimSpace(out)
}

// Validate reports whether a harmonized response still meets the
// Anthroi-1 standards. Responses that fail should be replaced with
// FallbackResponse.
func (h *Harmonizer) Validate(response string) bool {
	for _, p := range emotionalPhrases {
		if p.MatchString(response) {
			h.logger.Warn("response contains emotional language")
			return false
		}
	}
	for _, p := range roleplayIndicators {
		if p.MatchString(response) {
			h.logger.Warn("response contains roleplay elements")
			return false
		}
	}

	// Very short responses must at least be a clear refusal.
	if len(strings.Fields(response)) < 5 {
		lower := strings.ToLower(response)
		if !strings.Contains(lower, "cannot") &&
			!strings.Contains(lower, "unable") &&
			!strings.Contains(lower, "not") {
			h.logger.Warn("response too short without clear refusal")
			return false
		}
	}
	return true
}

// looksLikeHTML reports whether output appears to contain HTML markup
// rather than plain text or markdown.
func looksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// applyLengthLimit truncates to roughly maxWords words, preferring a
// sentence boundary.
func applyLengthLimit(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 500
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	truncated := strings.Join(words[:maxWords], " ")
	sentences := sentenceBoundary.Split(truncated, -1)
	if len(sentences) > 1 {
		return strings.Join(sentences[:len(sentences)-1], ". ") + "."
	}
	return truncated
}

// reduceApologies keeps the first apology and drops the rest.
func reduceApologies(text string) string {
	if len(apologyMarker.FindAllStringIndex(text, -1)) <= 1 {
		return text
	}

	first := true
	return apologyPattern.ReplaceAllStringFunc(text, func(match string) string {
		if first {
			first = false
			return match
		}
		return ""
	})
}
