package quality

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodContent() Content {
	return Content{
		Index:      0.72,
		Confidence: 0.9,
		Tensions: []string{
			"Short-term revenue versus long-term customer trust",
			"Automation efficiency versus workforce stability",
			"Speed of rollout versus depth of regulatory review",
		},
		Consequences: []string{
			"Competitors may accelerate their own launches in response",
			"Support volume could spike during the migration window",
			"Early adopters may churn if pricing changes mid-cycle",
			"Internal teams may deprioritize maintenance of the legacy system",
		},
		Recommendation: "Pilot the rollout in two mid-sized regions for one quarter before committing nationally.",
		Explanation: "The decision scores well on feasibility and stakeholder benefit, but the clarity gap around " +
			"regulatory exposure warrants a staged rollout with explicit review checkpoints before full commitment.",
	}
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, Validate(goodContent()))
}

func TestValidateRejectsTooFewTensions(t *testing.T) {
	c := goodContent()
	c.Tensions = c.Tensions[:2]

	err := Validate(c)
	require.Error(t, err)

	var qerr *Error
	require.True(t, errors.As(err, &qerr))
	require.Len(t, qerr.Violations, 1)
	assert.Contains(t, qerr.Violations[0], "insufficient tensions: 2 < 3")
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	c := Content{
		Index:          1.2,
		Confidence:     -0.1,
		Tensions:       []string{"too short", "too short", "n/a"},
		Consequences:   []string{"ok consequence one here", "ok consequence two here"},
		Recommendation: "It depends on the situation.",
		Explanation:    "Too brief.",
	}

	err := Validate(c)
	var qerr *Error
	require.True(t, errors.As(err, &qerr))

	joined := strings.Join(qerr.Violations, "\n")
	assert.Contains(t, joined, "it depends")
	assert.Contains(t, joined, "depends on the situation")
	assert.Contains(t, joined, "insufficient consequences")
	assert.Contains(t, joined, "recommendation too short")
	assert.Contains(t, joined, "explanation too short")
	assert.Contains(t, joined, "placeholder or empty content")
	assert.Contains(t, joined, "duplicate tension")
	assert.Contains(t, joined, "tension too short")
	assert.Contains(t, joined, "invalid index value")
	assert.Contains(t, joined, "invalid confidence value")
}

func TestValidateRejectsDuplicateConsequences(t *testing.T) {
	c := goodContent()
	c.Consequences[3] = c.Consequences[0]

	err := Validate(c)
	var qerr *Error
	require.True(t, errors.As(err, &qerr))
	require.Len(t, qerr.Violations, 1)
	assert.Contains(t, qerr.Violations[0], "duplicate consequence")
}

func TestValidatePlaceholderMatchIsExact(t *testing.T) {
	c := goodContent()
	// "unknown" as a substring of a substantive entry is fine.
	c.Tensions[0] = "Unknown regulatory exposure versus opportunity cost of waiting"
	require.NoError(t, Validate(c))

	c.Tensions[0] = "  UNKNOWN  "
	err := Validate(c)
	var qerr *Error
	require.True(t, errors.As(err, &qerr))
	joined := strings.Join(qerr.Violations, "\n")
	assert.Contains(t, joined, "placeholder or empty content")
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100.0, Score(goodContent()))

	c := goodContent()
	c.Tensions = c.Tensions[:2]
	assert.Equal(t, 85.0, Score(c))

	c = goodContent()
	c.Recommendation = "Just do it."
	assert.Equal(t, 90.0, Score(c))

	// Bonuses for exceeding minimums.
	c = goodContent()
	c.Tensions = append(c.Tensions,
		"Vendor lock-in versus integration depth",
		"Data residency versus analytics capability")
	c.Consequences = append(c.Consequences,
		"Procurement cycles may lengthen for dependent teams",
		"Partner integrations may need renegotiated terms",
		"Audit scope expands to cover the new data flows")
	assert.Equal(t, 100.0, Score(c))
}

func TestScoreClampedToZero(t *testing.T) {
	c := Content{
		Recommendation: "it depends; consider all options; evaluate carefully; there are pros and cons; " +
			"further analysis needed; consult with experts; more research required; case by case basis; " +
			"depends on the situation; various factors to consider",
	}
	assert.Equal(t, 0.0, Score(c))
}
