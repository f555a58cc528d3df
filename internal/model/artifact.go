package model

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const featureCount = 3

// Artifact is the frozen classifier bundle: a standard scaler, a linear
// softmax classifier and the label decoder, packaged as one YAML file.
// It is loaded exactly once at process start and is read-only afterwards,
// so concurrent Score calls need no locking. Shipping a new model means
// shipping a new bundle and restarting the process.
type Artifact struct {
	version string
	labels  []string
	scaler  scaler
	weights [][]float64
	bias    []float64
}

type scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

type bundleFile struct {
	Version    string `yaml:"version"`
	Labels     []string `yaml:"labels"`
	Scaler     scaler `yaml:"scaler"`
	Classifier struct {
		Weights    [][]float64 `yaml:"weights"`
		Intercepts []float64   `yaml:"intercepts"`
	} `yaml:"classifier"`
}

// Verdict is the scorer's output for one feature vector.
type Verdict struct {
	Label        string
	BurnoutRisk  bool
	Confidence   float64
	ModelVersion string
}

// Load reads and validates a bundle from a local path.
func Load(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates raw bundle bytes. Any structural problem is an error:
// the caller is expected to treat it as fatal rather than start without
// a scorer.
func Parse(raw []byte) (*Artifact, error) {
	var f bundleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if strings.TrimSpace(f.Version) == "" {
		return nil, fmt.Errorf("model artifact: missing version")
	}
	if len(f.Labels) < 2 {
		return nil, fmt.Errorf("model artifact: need at least 2 labels, got %d", len(f.Labels))
	}
	if len(f.Scaler.Mean) != featureCount || len(f.Scaler.Scale) != featureCount {
		return nil, fmt.Errorf("model artifact: scaler must have %d mean/scale entries", featureCount)
	}
	for i, s := range f.Scaler.Scale {
		if s == 0 {
			return nil, fmt.Errorf("model artifact: scaler scale[%d] is zero", i)
		}
	}
	if len(f.Classifier.Weights) != len(f.Labels) {
		return nil, fmt.Errorf("model artifact: %d weight rows for %d labels", len(f.Classifier.Weights), len(f.Labels))
	}
	for i, row := range f.Classifier.Weights {
		if len(row) != featureCount {
			return nil, fmt.Errorf("model artifact: weight row %d has %d entries, want %d", i, len(row), featureCount)
		}
	}
	if len(f.Classifier.Intercepts) != len(f.Labels) {
		return nil, fmt.Errorf("model artifact: %d intercepts for %d labels", len(f.Classifier.Intercepts), len(f.Labels))
	}
	return &Artifact{
		version: f.Version,
		labels:  f.Labels,
		scaler:  f.Scaler,
		weights: f.Classifier.Weights,
		bias:    f.Classifier.Intercepts,
	}, nil
}

func (a *Artifact) Version() string { return a.version }

// Score maps a 3-feature vector to a risk verdict. Deterministic: the
// same artifact and inputs always produce the same verdict.
func (a *Artifact) Score(avgTired, avgCapable, avgMeaningful float64) Verdict {
	scaled := a.transform([featureCount]float64{avgTired, avgCapable, avgMeaningful})
	probs := a.predictProba(scaled)

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	label := a.labels[best]
	return Verdict{
		Label:        label,
		BurnoutRisk:  strings.EqualFold(label, "high"),
		Confidence:   probs[best],
		ModelVersion: a.version,
	}
}

func (a *Artifact) transform(x [featureCount]float64) [featureCount]float64 {
	var out [featureCount]float64
	for i := range x {
		out[i] = (x[i] - a.scaler.Mean[i]) / a.scaler.Scale[i]
	}
	return out
}

// predictProba computes softmax class probabilities over the linear
// decision scores, shifted by the max score for numeric stability.
func (a *Artifact) predictProba(x [featureCount]float64) []float64 {
	scores := make([]float64, len(a.labels))
	for c := range a.labels {
		z := a.bias[c]
		for i := 0; i < featureCount; i++ {
			z += a.weights[c][i] * x[i]
		}
		scores[c] = z
	}
	maxScore := scores[0]
	for _, z := range scores[1:] {
		if z > maxScore {
			maxScore = z
		}
	}
	var sum float64
	probs := make([]float64, len(scores))
	for c, z := range scores {
		probs[c] = math.Exp(z - maxScore)
		sum += probs[c]
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs
}
