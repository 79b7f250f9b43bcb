package explain

import (
	"fmt"
	"strings"

	"defi-risk-ai/internal/domain"
)

// ExplanationMethod labels every explanation this engine produces. The value
// is kept stable for existing consumers.
const ExplanationMethod = "AI-powered analysis with feature importance"

const (
	highRiskCut   = 0.7
	mediumRiskCut = 0.4
)

// Level classifies an overall score. Both cut lines are strict, so 0.7 is
// MEDIUM and 0.4 is LOW.
func Level(score float64) domain.RiskLevel {
	switch {
	case score > highRiskCut:
		return domain.RiskHigh
	case score > mediumRiskCut:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// Input is what every rule sees: the supplied scoring result and the
// request it was computed from.
type Input struct {
	Result  *domain.ScoringResult
	Request domain.ScoringRequest
}

// Prediction returns a sub-score from the supplied result.
func (in Input) Prediction(key string) float64 {
	return in.Result.Predictions[key]
}

type Predicate func(in Input) bool

type TextRule struct {
	Name    string
	Applies Predicate
	Text    string
}

type RecommendationRule struct {
	Name           string
	Applies        Predicate
	Recommendation domain.Recommendation
}

type FactorTemplate struct {
	Explain  func(f domain.RiskFactor) string
	Evidence func(f domain.RiskFactor, in Input) []string
}

// Rules is the full rule set. Lists are evaluated in order; each rule either
// contributes its output or does not.
type Rules struct {
	Summary         []TextRule
	Insights        []TextRule
	Recommendations []RecommendationRule
	Factors         map[string]FactorTemplate
	Fallback        FactorTemplate
}

type Engine struct {
	rules Rules
}

func NewEngine() *Engine {
	return &Engine{rules: DefaultRules()}
}

// NewEngineWithRules builds an engine over a custom rule set. A zero Fallback
// is replaced with the default one.
func NewEngineWithRules(rules Rules) *Engine {
	if rules.Fallback.Explain == nil || rules.Fallback.Evidence == nil {
		rules.Fallback = genericFactor
	}
	return &Engine{rules: rules}
}

// Explain renders a narrative for a previously computed result. It reads
// sub-scores only from result.Predictions and never rescores the request.
func (e *Engine) Explain(result *domain.ScoringResult, req domain.ScoringRequest) (*domain.ExplanationResult, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}
	in := Input{Result: result, Request: req}

	summary := []string{fmt.Sprintf("Your position has %s risk (score: %.2f).", Level(result.OverallRiskScore), result.OverallRiskScore)}
	for _, rule := range e.rules.Summary {
		if rule.Applies(in) {
			summary = append(summary, rule.Text)
		}
	}

	insights := make([]string, 0, len(e.rules.Insights))
	for _, rule := range e.rules.Insights {
		if rule.Applies(in) {
			insights = append(insights, rule.Text)
		}
	}

	recommendations := make([]domain.Recommendation, 0, len(e.rules.Recommendations))
	for _, rule := range e.rules.Recommendations {
		if rule.Applies(in) {
			recommendations = append(recommendations, rule.Recommendation)
		}
	}

	explained := make([]domain.FactorExplanation, 0, len(result.RiskFactors))
	for _, f := range result.RiskFactors {
		tmpl, ok := e.rules.Factors[f.FactorID]
		if !ok {
			tmpl = e.rules.Fallback
		}
		evidence := tmpl.Evidence(f, in)
		if evidence == nil {
			evidence = []string{}
		}
		explained = append(explained, domain.FactorExplanation{
			FactorName:  f.FactorName,
			Explanation: tmpl.Explain(f),
			Importance:  f.ImportanceScore,
			Evidence:    evidence,
		})
	}

	return &domain.ExplanationResult{
		Summary:           strings.Join(summary, " "),
		KeyInsights:       insights,
		RiskFactors:       explained,
		Recommendations:   recommendations,
		Confidence:        result.Confidence,
		ExplanationMethod: ExplanationMethod,
	}, nil
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
