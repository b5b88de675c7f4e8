package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func solidModel() *CognitiveModel {
	return &CognitiveModel{
		Claim: "Incremental method reduces multi-agent implementation time by 30%",
		Propositions: []Proposition{
			{Text: "Smaller iterations reduce rework", Solidity: fptr(0.9)},
			{Text: "Teams of 2-5 devs benefit most", Solidity: fptr(0.85)},
		},
		SolidGrounds: []SolidGround{
			{Claim: "Iterative development shortens cycles", Evidence: "meta-analysis", Source: "doi:10/xyz"},
		},
	}
}

func TestCognitiveModel_Validate_RejectsLowConfidenceContradiction(t *testing.T) {
	m := solidModel()
	m.Contradictions = []Contradiction{{Description: "tension", Confidence: 0.5}}

	err := m.Validate()
	if !errors.Is(err, ErrContradictionConfidenceLow) {
		t.Fatalf("expected ErrContradictionConfidenceLow, got %v", err)
	}
}

func TestCognitiveModel_Validate_AcceptsConfidentContradiction(t *testing.T) {
	m := solidModel()
	m.Contradictions = []Contradiction{{Description: "tension", Confidence: 0.85}}

	if err := m.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCognitiveModel_Validate_SolidityRange(t *testing.T) {
	m := solidModel()
	m.Propositions = append(m.Propositions, Proposition{Text: "bad", Solidity: fptr(1.2)})

	if err := m.Validate(); !errors.Is(err, ErrSolidityOutOfRange) {
		t.Fatalf("expected ErrSolidityOutOfRange, got %v", err)
	}

	m.Propositions[len(m.Propositions)-1].Solidity = fptr(-0.1)
	if err := m.Validate(); !errors.Is(err, ErrSolidityOutOfRange) {
		t.Fatalf("expected ErrSolidityOutOfRange for negative, got %v", err)
	}

	// nil solidity means "not yet evaluated" and is always valid
	m.Propositions[len(m.Propositions)-1].Solidity = nil
	if err := m.Validate(); err != nil {
		t.Fatalf("expected no error for unevaluated proposition, got %v", err)
	}
}

func TestCognitiveModel_CalculateSolidez_Bounds(t *testing.T) {
	cases := []struct {
		name  string
		model *CognitiveModel
	}{
		{"empty", &CognitiveModel{}},
		{"solid", solidModel()},
		{"noisy", &CognitiveModel{
			Claim:         "LLMs increase productivity somehow in some contexts maybe, measured by 40% gains",
			OpenQuestions: []string{"q1", "q2", "q3", "q4", "q5", "q6"},
			Propositions: []Proposition{
				{Text: "a", Solidity: fptr(1.0)}, {Text: "b", Solidity: fptr(1.0)},
				{Text: "c", Solidity: fptr(1.0)}, {Text: "d", Solidity: fptr(1.0)},
			},
			SolidGrounds: []SolidGround{{}, {}, {}, {}},
		}},
	}

	for _, tc := range cases {
		got := tc.model.CalculateSolidez()
		if got < 0 || got > 100 {
			t.Fatalf("%s: solidez %f out of [0, 100]", tc.name, got)
		}
	}
}

func TestCognitiveModel_CalculateSolidez_EmptyIsLowSolidIsHigh(t *testing.T) {
	empty := (&CognitiveModel{}).CalculateSolidez()
	solid := solidModel().CalculateSolidez()
	if solid <= empty {
		t.Fatalf("expected solid model (%f) to outscore empty model (%f)", solid, empty)
	}
}

func TestCognitiveModel_IsMature(t *testing.T) {
	m := solidModel()
	if !m.IsMature() {
		t.Fatal("expected solid model to be mature")
	}

	short := solidModel()
	short.Claim = "too short"
	if short.IsMature() {
		t.Fatal("short claim must not be mature")
	}

	fewProps := solidModel()
	fewProps.Propositions = fewProps.Propositions[:1]
	if fewProps.IsMature() {
		t.Fatal("one proposition must not be mature")
	}

	fragile := solidModel()
	fragile.Propositions = []Proposition{
		{Text: "a", Solidity: fptr(0.3)},
		{Text: "b", Solidity: fptr(0.4)},
	}
	if fragile.IsMature() {
		t.Fatal("fragile propositions must not be mature")
	}

	questions := solidModel()
	questions.OpenQuestions = []string{"q1", "q2"}
	if questions.IsMature() {
		t.Fatal("two open questions must not be mature")
	}

	contradicted := solidModel()
	contradicted.Contradictions = []Contradiction{{Description: "tension", Confidence: 0.9}}
	if contradicted.IsMature() {
		t.Fatal("contradictions must not be mature")
	}
}

func TestCognitiveModel_SolidAndFragilePropositions(t *testing.T) {
	m := &CognitiveModel{
		Propositions: []Proposition{
			{Text: "solid", Solidity: fptr(0.9)},
			{Text: "borderline", Solidity: fptr(0.6)},
			{Text: "fragile", Solidity: fptr(0.2)},
			{Text: "unevaluated"},
		},
	}

	solid := m.SolidPropositions(SolidPropositionThreshold)
	if len(solid) != 2 {
		t.Fatalf("expected 2 solid propositions, got %d", len(solid))
	}

	fragile := m.FragilePropositions(FragilePropositionThreshold)
	if len(fragile) != 1 || fragile[0].Text != "fragile" {
		t.Fatalf("expected exactly the fragile proposition, got %+v", fragile)
	}
}

func TestCognitiveModel_JSONRoundTrip(t *testing.T) {
	m := solidModel()
	m.OpenQuestions = []string{"What about larger teams?"}
	m.Context = map[string]any{"domain": "software engineering"}
	m.Propositions[0].Evidence = []string{"sprint retrospectives"}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := CognitiveModelFromJSON(data)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !reflect.DeepEqual(m, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", m, got)
	}
}

func TestModelContext_AcceptsObjectAndString(t *testing.T) {
	var m CognitiveModel
	payload := `{"claim": "c", "context": {"domain": "software engineering"}}`
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		t.Fatalf("object context: %v", err)
	}
	if m.Context["domain"] != "software engineering" {
		t.Fatalf("object context lost: %+v", m.Context)
	}

	payload = `{"claim": "c", "context": "pesquisador observando o próprio time"}`
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		t.Fatalf("string context: %v", err)
	}
	if m.Context["summary"] != "pesquisador observando o próprio time" {
		t.Fatalf("string context must fold into summary, got %+v", m.Context)
	}

	payload = `{"claim": "c", "context": "   "}`
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		t.Fatalf("blank context: %v", err)
	}
	if m.Context != nil {
		t.Fatalf("blank context must clear the field, got %+v", m.Context)
	}

	payload = `{"claim": "c", "context": [1, 2]}`
	if err := json.Unmarshal([]byte(payload), &m); err == nil {
		t.Fatal("array context must be rejected")
	}
}

func TestCognitiveModel_Clone_Independent(t *testing.T) {
	m := solidModel()
	c := m.Clone()

	*c.Propositions[0].Solidity = 0.1
	c.Claim = "mutated"

	if *m.Propositions[0].Solidity != 0.9 || m.Claim == "mutated" {
		t.Fatal("clone shares memory with original")
	}
}

func TestDirectionChanged(t *testing.T) {
	build := &FocalArgument{Intent: IntentBuildTheory}
	test := &FocalArgument{Intent: IntentTestHypothesis}
	unclear := &FocalArgument{Intent: IntentUnclear}

	if !DirectionChanged(build, test) {
		t.Fatal("expected direction change between distinct intents")
	}
	if DirectionChanged(build, build) {
		t.Fatal("same intent is not a direction change")
	}
	if DirectionChanged(unclear, test) || DirectionChanged(build, unclear) {
		t.Fatal("unclear intents never signal a direction change")
	}
	if DirectionChanged(nil, test) {
		t.Fatal("missing previous focal argument is not a change")
	}
}

func TestFocalArgument_Normalize(t *testing.T) {
	f := &FocalArgument{Intent: "banana", Subject: "LLM productivity"}
	f.Normalize()

	if f.Intent != IntentUnclear {
		t.Fatalf("expected unclear intent, got %s", f.Intent)
	}
	if f.Subject != "LLM productivity" {
		t.Fatalf("subject must be preserved, got %s", f.Subject)
	}
	if f.Population != NotSpecified || f.Metrics != NotSpecified || f.ArticleType != NotSpecified {
		t.Fatalf("empty fields must become %q: %+v", NotSpecified, f)
	}
}
