package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validBundle = `
version: test-9
labels: [Low, Moderate, High]
scaler:
  mean: [3.0, 3.0, 3.0]
  scale: [1.5, 1.5, 1.5]
classifier:
  weights:
    - [-1.0, 1.0, 1.0]
    - [0.1, 0.0, -0.1]
    - [1.0, -1.0, -1.0]
  intercepts: [0.2, 0.3, -0.5]
`

func TestParse_ValidBundle(t *testing.T) {
	artifact, err := Parse([]byte(validBundle))
	require.NoError(t, err)
	require.Equal(t, "test-9", artifact.Version())
}

func TestParse_RejectsBrokenBundles(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "not yaml",
			mutate:  func(string) string { return "{{{" },
			wantErr: "parse model artifact",
		},
		{
			name:    "missing version",
			mutate:  func(s string) string { return strings.Replace(s, "version: test-9", "version: \"\"", 1) },
			wantErr: "missing version",
		},
		{
			name:    "zero scale",
			mutate:  func(s string) string { return strings.Replace(s, "scale: [1.5, 1.5, 1.5]", "scale: [1.5, 0, 1.5]", 1) },
			wantErr: "scale[1] is zero",
		},
		{
			name:    "wrong scaler arity",
			mutate:  func(s string) string { return strings.Replace(s, "mean: [3.0, 3.0, 3.0]", "mean: [3.0, 3.0]", 1) },
			wantErr: "mean/scale entries",
		},
		{
			name:    "weight rows mismatch labels",
			mutate:  func(s string) string { return strings.Replace(s, "    - [0.1, 0.0, -0.1]\n", "", 1) },
			wantErr: "weight rows",
		},
		{
			name:    "short weight row",
			mutate:  func(s string) string { return strings.Replace(s, "[0.1, 0.0, -0.1]", "[0.1, 0.0]", 1) },
			wantErr: "entries, want",
		},
		{
			name:    "intercepts mismatch",
			mutate:  func(s string) string { return strings.Replace(s, "intercepts: [0.2, 0.3, -0.5]", "intercepts: [0.2]", 1) },
			wantErr: "intercepts",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.mutate(validBundle)))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does/not/exist.yaml")
	require.Error(t, err)
}

func TestScore_Deterministic(t *testing.T) {
	artifact, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	first := artifact.Score(5.2, 1.1, 1.8)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, artifact.Score(5.2, 1.1, 1.8))
	}
}

func TestScore_ConfidenceIsAValidProbability(t *testing.T) {
	artifact, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	for _, in := range [][3]float64{{0, 0, 0}, {6, 6, 6}, {3, 3, 3}, {5.5, 0.5, 1}, {0.2, 5.8, 5.9}} {
		v := artifact.Score(in[0], in[1], in[2])
		require.Greater(t, v.Confidence, 0.0)
		require.LessOrEqual(t, v.Confidence, 1.0)
		// The winning class can never be less likely than uniform.
		require.GreaterOrEqual(t, v.Confidence, 1.0/3.0)
		require.Equal(t, "test-9", v.ModelVersion)
	}
}

func TestScore_RiskTracksHighLabelOnly(t *testing.T) {
	artifact, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	// High tiredness with low capability and meaning pushes the third
	// class; the inverse pushes the first.
	high := artifact.Score(6, 0, 0)
	require.Equal(t, "High", high.Label)
	require.True(t, high.BurnoutRisk)

	low := artifact.Score(0, 6, 6)
	require.Equal(t, "Low", low.Label)
	require.False(t, low.BurnoutRisk)
}

func TestScore_LabelMatchesArgmaxOrdering(t *testing.T) {
	// Two labels only: risk must still key off the literal label text.
	twoClass := `
version: two
labels: [ok, high]
scaler:
  mean: [0, 0, 0]
  scale: [1, 1, 1]
classifier:
  weights:
    - [-1, 0, 0]
    - [1, 0, 0]
  intercepts: [0, 0]
`
	artifact, err := Parse([]byte(twoClass))
	require.NoError(t, err)

	v := artifact.Score(4, 0, 0)
	require.Equal(t, "high", v.Label)
	require.True(t, v.BurnoutRisk, "lowercase high label still counts as risk")
}
