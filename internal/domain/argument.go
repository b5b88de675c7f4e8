package domain

import (
	"time"
)

// Argument is an immutable versioned snapshot of a cognitive model, scoped
// to one Idea. Versions per Idea are unique, contiguous and start at 1;
// assignment happens inside the store's insert transaction.
type Argument struct {
	ID             string          `json:"id"`
	IdeaID         string          `json:"idea_id"`
	Version        int             `json:"version"`
	Claim          string          `json:"claim"`
	Propositions   []Proposition   `json:"proposicoes"`
	OpenQuestions  []string        `json:"open_questions"`
	Contradictions []Contradiction `json:"contradictions"`
	SolidGrounds   []SolidGround   `json:"solid_grounds"`
	Context        ModelContext    `json:"context,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ArgumentWithScore pairs an argument with a claim-similarity score.
type ArgumentWithScore struct {
	Argument
	Score float32 `json:"score"`
}

// CognitiveModel returns the snapshot's content as a cognitive model,
// e.g. for seeding a resumed conversation.
func (a *Argument) CognitiveModel() *CognitiveModel {
	return &CognitiveModel{
		Claim:          a.Claim,
		Propositions:   a.Propositions,
		OpenQuestions:  a.OpenQuestions,
		Contradictions: a.Contradictions,
		SolidGrounds:   a.SolidGrounds,
		Context:        a.Context,
	}
}
