// Package quality rejects provider output that is well-structured but
// substantively vacuous: too few tensions or consequences, placeholder or
// duplicated entries, and generic boilerplate recommendations.
package quality

import (
	"fmt"
	"strings"
)

// Content is the substantive portion of an assembled decision response, the
// part the gate inspects.
type Content struct {
	Index          float64
	Confidence     float64
	Tensions       []string
	Consequences   []string
	Recommendation string
	Explanation    string
}

// Error carries every violation found in one validation pass.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("quality validation failed (%d issues): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// Minimum content requirements.
const (
	minTensions             = 3
	minConsequences         = 4
	minItemLength           = 10
	minRecommendationLength = 50
	minExplanationLength    = 100
)

// Generic phrases that indicate lazy analysis. Matched case-insensitively as
// substrings of the recommendation.
var bannedPhrases = []string{
	"it depends",
	"consider all options",
	"evaluate carefully",
	"there are pros and cons",
	"further analysis needed",
	"consult with experts",
	"more research required",
	"case by case basis",
	"depends on the situation",
	"various factors to consider",
}

// Placeholder tokens rejected as list entries, compared case-insensitively
// after trimming.
var placeholderValues = map[string]struct{}{
	"n/a":         {},
	"none":        {},
	"tbd":         {},
	"todo":        {},
	"placeholder": {},
	"unknown":     {},
}

// Validate checks every quality rule and reports all violations at once. A
// nil return means the content passed the gate.
func Validate(c Content) error {
	var violations []string

	recLower := strings.ToLower(c.Recommendation)
	for _, phrase := range bannedPhrases {
		if strings.Contains(recLower, phrase) {
			violations = append(violations, fmt.Sprintf("generic phrase detected in recommendation: %q", phrase))
		}
	}

	if len(c.Tensions) < minTensions {
		violations = append(violations, fmt.Sprintf("insufficient tensions: %d < %d", len(c.Tensions), minTensions))
	}
	if len(c.Consequences) < minConsequences {
		violations = append(violations, fmt.Sprintf("insufficient consequences: %d < %d", len(c.Consequences), minConsequences))
	}

	if len(c.Recommendation) < minRecommendationLength {
		violations = append(violations, fmt.Sprintf("recommendation too short: %d chars < %d", len(c.Recommendation), minRecommendationLength))
	}
	if len(c.Explanation) < minExplanationLength {
		violations = append(violations, fmt.Sprintf("explanation too short: %d chars < %d", len(c.Explanation), minExplanationLength))
	}

	for _, item := range append(append([]string{}, c.Tensions...), c.Consequences...) {
		normalized := strings.ToLower(strings.TrimSpace(item))
		if _, ok := placeholderValues[normalized]; ok || normalized == "" {
			violations = append(violations, fmt.Sprintf("placeholder or empty content detected: %q", item))
		}
	}

	if dup := firstDuplicate(c.Tensions); dup != "" {
		violations = append(violations, fmt.Sprintf("duplicate tension detected: %q", dup))
	}
	if dup := firstDuplicate(c.Consequences); dup != "" {
		violations = append(violations, fmt.Sprintf("duplicate consequence detected: %q", dup))
	}

	for _, tension := range c.Tensions {
		if len(strings.TrimSpace(tension)) < minItemLength {
			violations = append(violations, fmt.Sprintf("tension too short: %q", tension))
		}
	}
	for _, consequence := range c.Consequences {
		if len(strings.TrimSpace(consequence)) < minItemLength {
			violations = append(violations, fmt.Sprintf("consequence too short: %q", consequence))
		}
	}

	if c.Index < 0 || c.Index > 1 {
		violations = append(violations, fmt.Sprintf("invalid index value: %v", c.Index))
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		violations = append(violations, fmt.Sprintf("invalid confidence value: %v", c.Confidence))
	}

	if len(violations) > 0 {
		return &Error{Violations: violations}
	}
	return nil
}

// Score grades content from 0 to 100. The score is advisory telemetry; only
// Validate decides acceptance.
func Score(c Content) float64 {
	score := 100.0

	recLower := strings.ToLower(c.Recommendation)
	for _, phrase := range bannedPhrases {
		if strings.Contains(recLower, phrase) {
			score -= 10
		}
	}

	if len(c.Tensions) < minTensions {
		score -= 15
	}
	if len(c.Consequences) < minConsequences {
		score -= 15
	}
	if len(c.Recommendation) < minRecommendationLength {
		score -= 10
	}
	if len(c.Explanation) < minExplanationLength {
		score -= 10
	}

	if len(c.Tensions) >= 5 {
		score += 5
	}
	if len(c.Consequences) >= 7 {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func firstDuplicate(items []string) string {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			return item
		}
		seen[item] = struct{}{}
	}
	return ""
}
