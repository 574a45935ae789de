package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "store.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleAnalysis(customerID, industry string, index float64) *Analysis {
	a := &Analysis{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Question:   "Should we expand into the new market next quarter?",
		Industry:   industry,
		Provider:   "mistral",
		IndexScore: index,
		Confidence: 0.9,
		Coherence:  "High",
	}
	a.SetTensions([]string{"speed versus quality of the rollout", "cost versus long-term flexibility"})
	a.SetConsequences([]string{"talent churn during transition", "vendor lock-in pressure"})
	return a
}

func TestSaveAndGetAnalysis(t *testing.T) {
	db := openTestDB(t)

	saved := sampleAnalysis("cust-1", "finance", 0.82)
	require.NoError(t, db.SaveAnalysis(saved))

	got, err := db.GetAnalysis(saved.ID, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, saved.Question, got.Question)
	assert.Equal(t, []string{"speed versus quality of the rollout", "cost versus long-term flexibility"}, got.Tensions())
	assert.Len(t, got.Consequences(), 2)

	_, err = db.GetAnalysis(saved.ID, "cust-other")
	require.Error(t, err)
}

func TestListAnalysesFilters(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveAnalysis(sampleAnalysis("cust-1", "finance", 0.82)))
	require.NoError(t, db.SaveAnalysis(sampleAnalysis("cust-1", "healthcare", 0.45)))
	require.NoError(t, db.SaveAnalysis(sampleAnalysis("cust-2", "finance", 0.9)))

	rows, total, err := db.ListAnalyses(AnalysisQuery{CustomerID: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	rows, total, err = db.ListAnalyses(AnalysisQuery{CustomerID: "cust-1", Industry: "Finance"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "finance", rows[0].Industry)

	_, total, err = db.ListAnalyses(AnalysisQuery{CustomerID: "cust-1", MinIndex: 0.5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCountAndAggregates(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveAnalysis(sampleAnalysis("cust-1", "general", 0.6)))
	require.NoError(t, db.SaveAnalysis(sampleAnalysis("cust-1", "general", 0.8)))

	count, err := db.CountAnalyses("cust-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	avg, err := db.AverageIndex("cust-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, avg, 0.0001)

	byProvider, err := db.CountByProvider("cust-1")
	require.NoError(t, err)
	require.Len(t, byProvider, 1)
	assert.Equal(t, "mistral", byProvider[0].Provider)
	assert.Equal(t, int64(2), byProvider[0].Count)

	avg, err = db.AverageIndex("cust-none")
	require.NoError(t, err)
	assert.Zero(t, avg)
}
