package agent

import (
	"context"
	"fmt"

	"github.com/ideialab/maieutica/internal/domain"
	"go.uber.org/zap"
)

// defaultMaxSteps bounds one Invoke: orchestrator, a sub-agent dispatch,
// the curating pass and slack. A routing bug can never loop.
const defaultMaxSteps = 5

// Graph wires the agents into a checkpointed state machine. One value of
// ConversationState flows through the nodes; the state is checkpointed
// after every node so a crash or interrupt loses at most the node in
// flight.
type Graph struct {
	orchestrator  *Orchestrator
	structurer    *Structurer
	methodologist *Methodologist
	checkpoints   domain.CheckpointStore
	logger        *zap.Logger
	maxSteps      int
}

func NewGraph(
	orchestrator *Orchestrator,
	structurer *Structurer,
	methodologist *Methodologist,
	checkpoints domain.CheckpointStore,
	logger *zap.Logger,
) *Graph {
	return &Graph{
		orchestrator:  orchestrator,
		structurer:    structurer,
		methodologist: methodologist,
		checkpoints:   checkpoints,
		logger:        logger,
		maxSteps:      defaultMaxSteps,
	}
}

// Invoke runs one conversation turn to completion or interrupt. After a
// sub-agent returns, the orchestrator runs once more to curate the result
// into the cognitive model and close the turn; that curating pass always
// ends the turn, even if it suggests another dispatch.
func (g *Graph) Invoke(ctx context.Context, threadID string, state *domain.ConversationState) (*domain.ConversationState, error) {
	node := NodeOrchestrator
	var curated bool

	for steps := 0; steps < g.maxSteps; steps++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		if node != NodeOrchestrator {
			curated = true
		}
		next, err := g.runNode(ctx, node, state)
		g.checkpoint(ctx, threadID, state)
		if err != nil {
			// The orchestrator's reply is already on the transcript; a
			// failed sub-agent ends the turn rather than the session.
			g.logger.Error("graph node failed",
				zap.String("node", node),
				zap.String("thread_id", threadID),
				zap.Error(err))
			return state, nil
		}
		if state.PendingInterrupt != nil {
			return state, nil
		}
		if next == NodeEnd {
			return state, nil
		}
		if curated && node == NodeOrchestrator {
			// The curating pass has run; any further dispatch waits for
			// the next user message.
			return state, nil
		}
		node = next
	}

	return state, fmt.Errorf("graph exceeded %d steps on thread %s", g.maxSteps, threadID)
}

// Resume continues a checkpointed thread with a new user message. If the
// thread was suspended on a clarification, the message answers it;
// otherwise it starts a fresh turn on the loaded state.
func (g *Graph) Resume(ctx context.Context, threadID, message string) (*domain.ConversationState, error) {
	state, err := g.checkpoints.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if state.PendingInterrupt != nil {
		state.UserInput = message
		if err := g.methodologist.Resume(ctx, state, message); err != nil {
			g.logger.Error("clarification resume failed",
				zap.String("thread_id", threadID), zap.Error(err))
			g.checkpoint(ctx, threadID, state)
			return state, nil
		}
		if state.PendingInterrupt == nil {
			// The verdict landed; run the curating pass before ending
			// the turn.
			if err := g.orchestrator.Run(ctx, state); err != nil {
				g.logger.Error("curating pass failed after resume",
					zap.String("thread_id", threadID), zap.Error(err))
			}
		}
		g.checkpoint(ctx, threadID, state)
		return state, nil
	}

	state.UserInput = message
	state.AppendMessage(domain.RoleUser, message)
	state.NextStep = ""
	state.AgentSuggestion = nil

	return g.Invoke(ctx, threadID, state)
}

// GetState loads the latest checkpoint for a thread.
func (g *Graph) GetState(ctx context.Context, threadID string) (*domain.ConversationState, error) {
	return g.checkpoints.Load(ctx, threadID)
}

func (g *Graph) runNode(ctx context.Context, node string, state *domain.ConversationState) (string, error) {
	switch node {
	case NodeOrchestrator:
		if err := g.orchestrator.Run(ctx, state); err != nil {
			return "", err
		}
		return Route(state)
	case NodeStructurer:
		if err := g.structurer.Run(ctx, state); err != nil {
			return "", err
		}
		// Back to the orchestrator to fold the structured question into
		// the cognitive model and close the turn.
		return NodeOrchestrator, nil
	case NodeMethodologist:
		if err := g.methodologist.Run(ctx, state); err != nil {
			return "", err
		}
		return NodeOrchestrator, nil
	default:
		return "", fmt.Errorf("unknown graph node %q", node)
	}
}

// checkpoint persists the state. A failed save is logged, not fatal; the
// conversation continues with reduced durability.
func (g *Graph) checkpoint(ctx context.Context, threadID string, state *domain.ConversationState) {
	if g.checkpoints == nil {
		return
	}
	if _, err := g.checkpoints.Save(ctx, threadID, state); err != nil {
		g.logger.Error("checkpoint save failed",
			zap.String("thread_id", threadID), zap.Error(err))
	}
}
