package service

import (
	"context"
	"testing"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/embedding"
	"go.uber.org/zap"
)

func TestIdeaService_CreateRequiresTitle(t *testing.T) {
	svc := NewIdeaService(newMemIdeaStore(), newMemArgumentStore(), nil, zap.NewNop())

	if _, err := svc.Create(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank title")
	}

	idea, err := svc.Create(context.Background(), "LLM code review")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if idea.Status != domain.IdeaStatusExploring {
		t.Fatalf("new ideas start exploring, got %s", idea.Status)
	}
}

func TestIdeaService_RelatedWithoutEmbedder(t *testing.T) {
	ideas := newMemIdeaStore()
	svc := NewIdeaService(ideas, newMemArgumentStore(), nil, zap.NewNop())
	idea := seedIdea(t, ideas)

	related, err := svc.Related(context.Background(), idea.ID, 5)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if related != nil {
		t.Fatal("no embedder means no related results")
	}
}

func TestIdeaService_RelatedExcludesSelf(t *testing.T) {
	ideas := newMemIdeaStore()
	arguments := newMemArgumentStore()
	svc := NewIdeaService(ideas, arguments, embedding.NewMockClient(), zap.NewNop())
	idea := seedIdea(t, ideas)

	arg := &domain.Argument{IdeaID: idea.ID, Claim: "claim under test"}
	if err := arguments.Create(context.Background(), arg, nil); err != nil {
		t.Fatalf("seed argument: %v", err)
	}
	arguments.similar = []domain.ArgumentWithScore{
		{Argument: domain.Argument{ID: "arg-self", IdeaID: idea.ID}, Score: 0.99},
		{Argument: domain.Argument{ID: "arg-other", IdeaID: "idea-other"}, Score: 0.9},
	}

	related, err := svc.Related(context.Background(), idea.ID, 5)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) != 1 || related[0].IdeaID != "idea-other" {
		t.Fatalf("own idea must be excluded, got %+v", related)
	}
}

func TestIdeaService_RelatedWithoutSnapshots(t *testing.T) {
	ideas := newMemIdeaStore()
	svc := NewIdeaService(ideas, newMemArgumentStore(), embedding.NewMockClient(), zap.NewNop())
	idea := seedIdea(t, ideas)

	related, err := svc.Related(context.Background(), idea.ID, 5)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if related != nil {
		t.Fatal("an idea without snapshots has nothing to compare")
	}
}
