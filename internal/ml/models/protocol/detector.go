package protocol

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"defi-risk-ai/internal/ml/common"
	"defi-risk-ai/internal/ml/features"

	"github.com/narumiruna/go-iforest/pkg/iforest"
	"gonum.org/v1/gonum/stat"
)

// MinFitSamples is the smallest dataset Fit accepts.
const MinFitSamples = 16

// maxSubsample caps the per-tree subsample, as max_samples=min(256, n).
const maxSubsample = 256

// Detector is an isolation forest fitted on standardized protocol feature
// vectors. It is immutable after Fit and safe for concurrent Predict calls.
type Detector struct {
	means       []float64
	stds        []float64
	forest      *iforest.IsolationForest
	sampleCount int
	fingerprint string
}

// Fit standardizes samples column-wise (population std dev, zero replaced by
// one) and grows an isolation forest on the result. Every sample must have
// one value per features.ProtocolNames entry.
func Fit(samples [][]float64) (*Detector, error) {
	if len(samples) < MinFitSamples {
		return nil, fmt.Errorf("not enough samples to fit detector: got %d need >= %d", len(samples), MinFitSamples)
	}
	width := len(features.ProtocolNames)
	for i := range samples {
		if len(samples[i]) != width {
			return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(samples[i]), width)
		}
		for j, v := range samples[i] {
			if !common.Finite(v) {
				return nil, fmt.Errorf("sample %d feature %s is not finite", i, features.ProtocolNames[j])
			}
		}
	}

	means := make([]float64, width)
	stds := make([]float64, width)
	column := make([]float64, len(samples))
	for j := 0; j < width; j++ {
		for i := range samples {
			column[i] = samples[i][j]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		means[j] = mean
		stds[j] = math.Sqrt(variance)
		if stds[j] == 0 || !common.Finite(stds[j]) {
			stds[j] = 1
		}
	}

	scaled := make([][]float64, len(samples))
	for i := range samples {
		scaled[i] = standardize(samples[i], means, stds)
	}

	forest := iforest.NewWithOptions(iforest.Options{SampleSize: min(maxSubsample, len(samples))})
	forest.Fit(scaled)
	return &Detector{
		means:       means,
		stds:        stds,
		forest:      forest,
		sampleCount: len(samples),
		fingerprint: fingerprint(means, stds, forest),
	}, nil
}

func (d *Detector) Type() string { return "IsolationForest" }

func (d *Detector) Fitted() bool { return true }

func (d *Detector) SampleCount() int { return d.sampleCount }

// SubsampleSize is the number of points each tree was grown on.
func (d *Detector) SubsampleSize() int { return d.forest.SampleSize }

// Fingerprint is a short digest of the scaler and every tree split. Tree
// growth is randomized, so two fits of the same data differ here.
func (d *Detector) Fingerprint() string { return d.fingerprint }

// DecisionFunction follows the scikit-learn sign convention: positive for
// inliers, negative for outliers, 0.5 minus the isolation anomaly score.
func (d *Detector) DecisionFunction(vector []float64) (float64, error) {
	if d == nil || d.forest == nil {
		return 0, errors.New("detector is not fitted")
	}
	if len(vector) != len(d.means) {
		return 0, fmt.Errorf("vector has %d features, want %d", len(vector), len(d.means))
	}
	scores := d.forest.Score([][]float64{standardize(vector, d.means, d.stds)})
	if len(scores) != 1 || !common.Finite(scores[0]) {
		return 0, errors.New("isolation forest returned no usable score")
	}
	return 0.5 - scores[0], nil
}

func (d *Detector) Predict(fs features.Set) (float64, error) {
	decision, err := d.DecisionFunction(features.ProtocolVector(fs))
	if err != nil {
		return 0, err
	}
	return common.Clamp01(0.5 - decision), nil
}

func standardize(in, means, stds []float64) []float64 {
	out := make([]float64, len(in))
	for i := range in {
		out[i] = (in[i] - means[i]) / stds[i]
	}
	return out
}

func fingerprint(means, stds []float64, forest *iforest.IsolationForest) string {
	h := sha256.New()
	var buf [8]byte
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	for i := range means {
		putFloat(means[i])
		putFloat(stds[i])
	}
	putInt(forest.SampleSize)
	var walk func(n *iforest.TreeNode)
	walk = func(n *iforest.TreeNode) {
		if n == nil {
			putInt(-1)
			return
		}
		putInt(n.Size)
		putInt(n.SplitIndex)
		putFloat(n.SplitValue)
		walk(n.Left)
		walk(n.Right)
	}
	for _, tree := range forest.Trees {
		walk(tree)
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
