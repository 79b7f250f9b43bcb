package registry

import (
	"fmt"
	"sync/atomic"
	"time"

	"defi-risk-ai/internal/ml/common"
	"defi-risk-ai/internal/ml/models/impermanent"
	"defi-risk-ai/internal/ml/models/mev"
	"defi-risk-ai/internal/ml/models/protocol"
)

const (
	StatusTrained   = "trained"
	StatusUntrained = "untrained"
	StatusLoaded    = "loaded"

	SourceHeuristic = "heuristic"
	SourceSynthetic = "synthetic"
	SourceRetrain   = "retrain"
)

// State is one immutable snapshot of the predictors. Scoring loads it once
// per call, so a concurrent retrain is observed entirely or not at all.
type State struct {
	Version         string
	Revision        int
	Source          string
	TrainedAt       time.Time
	SampleCount     int
	ImpermanentLoss *impermanent.Model
	Protocol        protocol.Scorer
	MEV             *mev.Detector
}

// Status reports whether the protocol scorer is a fitted detector.
func (s *State) Status() string {
	if s.Protocol != nil && s.Protocol.Fitted() {
		return StatusTrained
	}
	return StatusUntrained
}

// fingerprinter is implemented by scorers whose fitted parameters are not
// fully determined by their training data.
type fingerprinter interface {
	Fingerprint() string
}

type Registry struct {
	baseVersion string
	state       atomic.Pointer[State]
}

// New creates a registry at revision zero holding the heuristic protocol
// scorer.
func New(baseVersion string) *Registry {
	if baseVersion == "" {
		baseVersion = "1.0.0-alpha"
	}
	r := &Registry{baseVersion: baseVersion}
	r.state.Store(&State{
		Version:         baseVersion,
		Source:          SourceHeuristic,
		ImpermanentLoss: impermanent.New(),
		Protocol:        protocol.NewHeuristic(),
		MEV:             mev.NewDetector(),
	})
	return r
}

// Current returns the active state. It never returns nil.
func (r *Registry) Current() *State {
	return r.state.Load()
}

// Install publishes a new protocol scorer as the next revision. The other
// predictors carry over unchanged. A fitted scorer's fingerprint is appended
// to the version so cached results never cross between distinct fits.
func (r *Registry) Install(scorer protocol.Scorer, source string, sampleCount int, at time.Time) *State {
	for {
		prev := r.state.Load()
		next := &State{
			Revision:        prev.Revision + 1,
			Source:          source,
			TrainedAt:       at.UTC(),
			SampleCount:     sampleCount,
			ImpermanentLoss: prev.ImpermanentLoss,
			Protocol:        scorer,
			MEV:             prev.MEV,
		}
		next.Version = fmt.Sprintf("%s+r%d", r.baseVersion, next.Revision)
		if fp, ok := scorer.(fingerprinter); ok && fp.Fingerprint() != "" {
			next.Version += "." + fp.Fingerprint()
		}
		if r.state.CompareAndSwap(prev, next) {
			return next
		}
	}
}

type PredictorInfo struct {
	Type    string `json:"type"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// Info describes each predictor in the active state, keyed by model key.
func (r *Registry) Info() map[string]PredictorInfo {
	s := r.Current()
	return map[string]PredictorInfo{
		common.ModelKeyImpermanentLoss: {Type: s.ImpermanentLoss.Type(), Version: s.Version, Status: StatusLoaded},
		common.ModelKeyProtocol:        {Type: s.Protocol.Type(), Version: s.Version, Status: s.Status()},
		common.ModelKeyMEV:             {Type: s.MEV.Type(), Version: s.Version, Status: StatusLoaded},
	}
}
