package agent

import (
	"fmt"

	"github.com/ideialab/maieutica/internal/domain"
)

// Graph node names.
const (
	NodeOrchestrator  = "orchestrator"
	NodeStructurer    = "structurer"
	NodeMethodologist = "methodologist"
	NodeEnd           = "end"
)

// Route maps the orchestrator's decision to the next graph node. It is
// total over the three valid next steps. A dispatch with a missing or
// unknown agent falls back to ending the turn; only a missing or unknown
// next step is an error, since that indicates an upstream contract
// violation rather than a user-facing condition.
func Route(state *domain.ConversationState) (string, error) {
	if state == nil {
		return "", fmt.Errorf("route: nil state")
	}

	switch state.NextStep {
	case domain.NextStepExplore, domain.NextStepClarify:
		// Both end the turn; the reply is already on the transcript.
		return NodeEnd, nil

	case domain.NextStepSuggestAgent:
		if state.AgentSuggestion == nil {
			return NodeEnd, nil
		}
		switch state.AgentSuggestion.Agent {
		case domain.AgentStructurer:
			return NodeStructurer, nil
		case domain.AgentMethodologist:
			return NodeMethodologist, nil
		default:
			return NodeEnd, nil
		}

	default:
		return "", fmt.Errorf("route: unknown next step %q", state.NextStep)
	}
}
