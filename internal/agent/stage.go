package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
	"github.com/leadgear/prospector/internal/provider"
)

// Outcome is what a stage processor reports for one batch.
type Outcome struct {
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Details   map[string]any `json:"details"`
}

func newOutcome() *Outcome {
	return &Outcome{Details: make(map[string]any)}
}

// stageContext carries everything a stage processor needs for one execution.
// Reads always go through store; mutations go through write, which the
// orchestrator binds to the real store or a no-op depending on dry-run mode.
type stageContext struct {
	cfg       *db.AgentConfig
	store     Store
	write     Mutator
	providers provider.Providers
	bus       *event.Bus
	logger    *zap.SugaredLogger
	now       time.Time
	loc       *time.Location
}

// stageProcessor is the single contract every pipeline stage implements.
type stageProcessor interface {
	name() string
	execute(ctx context.Context, sc *stageContext) (*Outcome, error)
}

// processorFor returns the processor for a stage name.
func processorFor(stage string) (stageProcessor, error) {
	switch stage {
	case db.StageDiscover:
		return &discoverStage{}, nil
	case db.StageEnrich:
		return &enrichStage{}, nil
	case db.StageFindEmails:
		return &findEmailsStage{}, nil
	case db.StageScore:
		return &scoreStage{}, nil
	case db.StageGenerateOutreach:
		return &outreachStage{}, nil
	default:
		return nil, fmt.Errorf("unknown stage: %s", stage)
	}
}

// batchSize returns the configured batch size with a sane floor.
func (sc *stageContext) batchSize() int {
	if sc.cfg.BatchSize <= 0 {
		return 10
	}
	return sc.cfg.BatchSize
}

func ptrStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
