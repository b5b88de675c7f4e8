package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Solidity thresholds for propositions. Solidity replaces the older
// premise/assumption split: a proposition is solid, fragile, or simply
// not yet evaluated (nil).
const (
	SolidPropositionThreshold   = 0.6
	FragilePropositionThreshold = 0.4

	// MinContradictionConfidence is the floor below which a detected
	// contradiction may not be persisted (the system only surfaces
	// tensions it is highly confident about).
	MinContradictionConfidence = 0.80
)

var (
	ErrContradictionConfidenceLow = errors.New("contradiction confidence below 0.80")
	ErrSolidityOutOfRange         = errors.New("proposition solidez must be in [0, 1]")
)

// Proposition is a unit of the argument's foundation. Wire names follow the
// research-assistant protocol (texto, solidez, evidencias).
type Proposition struct {
	ID       string   `json:"id,omitempty"`
	Text     string   `json:"texto"`
	Solidity *float64 `json:"solidez"`
	Evidence []string `json:"evidencias,omitempty"`
}

// Evaluated reports whether the proposition has a solidity score.
func (p Proposition) Evaluated() bool { return p.Solidity != nil }

// Contradiction is a detected internal tension within the argument.
type Contradiction struct {
	Description         string  `json:"description"`
	Confidence          float64 `json:"confidence"`
	SuggestedResolution string  `json:"suggested_resolution,omitempty"`
}

// SolidGround is a bibliographically grounded claim.
type SolidGround struct {
	Claim    string `json:"claim"`
	Evidence string `json:"evidence"`
	Source   string `json:"source"`
}

// ModelContext is a loose bag of situational facts about the research.
// Providers sometimes return it as a bare paragraph instead of an object;
// a string folds into {"summary": ...} so one loose field never discards
// the rest of an otherwise valid payload.
type ModelContext map[string]any

func (c *ModelContext) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		*c = m
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*c = nil
			return nil
		}
		*c = ModelContext{"summary": s}
		return nil
	}
	return fmt.Errorf("context must be a JSON object or string")
}

// CognitiveModel is the volatile in-memory structure representing the
// argument under construction during a conversation. It is mutated turn by
// turn by the orchestrator and persisted only through argument snapshots.
type CognitiveModel struct {
	Claim          string          `json:"claim"`
	Propositions   []Proposition   `json:"proposicoes"`
	OpenQuestions  []string        `json:"open_questions"`
	Contradictions []Contradiction `json:"contradictions"`
	SolidGrounds   []SolidGround   `json:"solid_grounds"`
	Context        ModelContext    `json:"context,omitempty"`
}

// Validate enforces the model's construction invariants: contradictions
// below the confidence floor are rejected, and solidity scores must lie in
// [0, 1].
func (m *CognitiveModel) Validate() error {
	for i, c := range m.Contradictions {
		if c.Confidence < MinContradictionConfidence {
			return fmt.Errorf("contradiction %d (%.2f): %w", i, c.Confidence, ErrContradictionConfidenceLow)
		}
	}
	for i, p := range m.Propositions {
		if p.Solidity != nil && (*p.Solidity < 0 || *p.Solidity > 1) {
			return fmt.Errorf("proposition %d (%.2f): %w", i, *p.Solidity, ErrSolidityOutOfRange)
		}
	}
	return nil
}

// MeanSolidity averages the solidity of evaluated propositions.
// Returns 0 when none have been evaluated.
func (m *CognitiveModel) MeanSolidity() float64 {
	var sum float64
	var n int
	for _, p := range m.Propositions {
		if p.Solidity != nil {
			sum += *p.Solidity
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// IsMature is the heuristic maturity check: a specific claim, at least two
// propositions averaging solid, at most one open question and no
// contradictions.
func (m *CognitiveModel) IsMature() bool {
	return len(m.Claim) > 20 &&
		len(m.Propositions) >= 2 &&
		m.MeanSolidity() >= SolidPropositionThreshold &&
		len(m.OpenQuestions) <= 1 &&
		len(m.Contradictions) == 0
}

// CalculateSolidez derives the overall solidity of the model on a 0-100
// scale: claim specificity (0-20), mean solidity of evaluated propositions
// (0-30), proposition count (0-15), fewness of open questions (0-20),
// absence of contradictions (0-15), solid-ground bonus (up to 10).
func (m *CognitiveModel) CalculateSolidez() float64 {
	score := m.claimSpecificity()

	score += m.MeanSolidity() * 30

	propPoints := float64(len(m.Propositions)) * 5
	if propPoints > 15 {
		propPoints = 15
	}
	score += propPoints

	questionPenalty := float64(len(m.OpenQuestions)) * 5
	if questionPenalty < 20 {
		score += 20 - questionPenalty
	}

	if len(m.Contradictions) == 0 {
		score += 15
	}

	groundBonus := float64(len(m.SolidGrounds)) * 5
	if groundBonus > 10 {
		groundBonus = 10
	}
	score += groundBonus

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// claimSpecificity scores how specific the claim is, 0-20. A longer claim
// with quantified terms scores higher than a vague one.
func (m *CognitiveModel) claimSpecificity() float64 {
	claim := strings.TrimSpace(m.Claim)
	if claim == "" {
		return 0
	}
	var score float64 = 5
	if len(claim) > 20 {
		score += 5
	}
	if len(claim) > 60 {
		score += 5
	}
	if strings.ContainsAny(claim, "0123456789%") {
		score += 5
	}
	return score
}

// SolidPropositions returns propositions whose solidity meets the threshold.
func (m *CognitiveModel) SolidPropositions(threshold float64) []Proposition {
	var out []Proposition
	for _, p := range m.Propositions {
		if p.Solidity != nil && *p.Solidity >= threshold {
			out = append(out, p)
		}
	}
	return out
}

// FragilePropositions returns evaluated propositions below the threshold.
func (m *CognitiveModel) FragilePropositions(threshold float64) []Proposition {
	var out []Proposition
	for _, p := range m.Propositions {
		if p.Solidity != nil && *p.Solidity < threshold {
			out = append(out, p)
		}
	}
	return out
}

// Completeness is the fraction of the model's five sections that carry
// content, 0-100. Used in events and observer summaries.
func (m *CognitiveModel) Completeness() float64 {
	var filled int
	if strings.TrimSpace(m.Claim) != "" {
		filled++
	}
	if len(m.Propositions) > 0 {
		filled++
	}
	if len(m.OpenQuestions) > 0 {
		filled++
	}
	if len(m.SolidGrounds) > 0 {
		filled++
	}
	if len(m.Context) > 0 {
		filled++
	}
	return float64(filled) / 5 * 100
}

// CognitiveModelFromJSON decodes and validates a model payload.
func CognitiveModelFromJSON(data []byte) (*CognitiveModel, error) {
	var m CognitiveModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse cognitive model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Clone returns a deep copy of the model.
func (m *CognitiveModel) Clone() *CognitiveModel {
	if m == nil {
		return nil
	}
	out := &CognitiveModel{
		Claim:          m.Claim,
		Propositions:   make([]Proposition, len(m.Propositions)),
		OpenQuestions:  append([]string(nil), m.OpenQuestions...),
		Contradictions: append([]Contradiction(nil), m.Contradictions...),
		SolidGrounds:   append([]SolidGround(nil), m.SolidGrounds...),
	}
	for i, p := range m.Propositions {
		cp := p
		if p.Solidity != nil {
			v := *p.Solidity
			cp.Solidity = &v
		}
		cp.Evidence = append([]string(nil), p.Evidence...)
		out.Propositions[i] = cp
	}
	if m.Context != nil {
		out.Context = make(ModelContext, len(m.Context))
		for k, v := range m.Context {
			out.Context[k] = v
		}
	}
	return out
}
