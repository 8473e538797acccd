// Package stages implements the content-generation stages and wires them
// into a pipeline graph: parse the raw product record, generate candidate
// questions, fan out into FAQ, product page and comparison builders, then
// gate on completeness before the write stage persists the bundles.
package stages

import (
	"context"
	"log/slog"

	"github.com/dusk-indust/contentgen/internal/llmpool"
	"github.com/dusk-indust/contentgen/internal/pipeline"
)

// Stage names double as artifact keys in the pipeline state.
const (
	StageParse       = "parse"
	StageQuestions   = "generate_questions"
	StageFAQ         = "faq"
	StageProductPage = "product_page"
	StageComparison  = "comparison"
	StageGate        = "quality_gate"
	StageWrite       = "write"
)

// InputRaw is the pipeline input key holding the raw product record.
const InputRaw = "raw_product"

const (
	// minQuestions is how many candidate questions the generator asks for.
	minQuestions = 18
	// minFAQ is the selection quota for the final FAQ.
	minFAQ = 15
	// gateMinFAQ is the smallest FAQ the quality gate will accept.
	gateMinFAQ = 5
)

// Completer is the LLM completion surface the stages depend on. The
// invocation pool satisfies it; tests substitute a scripted fake.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, llmpool.CallMetrics, error)
}

// Stages holds the shared collaborators for every content stage.
type Stages struct {
	completer Completer
	outputDir string
	logger    *slog.Logger
}

// Option configures a Stages set.
type Option func(*Stages)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Stages) { s.logger = l }
}

// New builds the stage set writing output bundles to outputDir.
func New(completer Completer, outputDir string, opts ...Option) *Stages {
	s := &Stages{
		completer: completer,
		outputDir: outputDir,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Graph assembles the content pipeline. Parse is the hard dependency for
// the whole run; the three content stages fan out from question generation
// and fan back in at the quality gate. The write stage only runs when the
// gate validated the bundle.
func (s *Stages) Graph() (*pipeline.Graph, error) {
	g := pipeline.NewGraph()
	if err := g.Add(pipeline.Node{Name: StageParse, Run: s.Parse, Fatal: true}); err != nil {
		return nil, err
	}
	if err := g.Add(pipeline.Node{Name: StageQuestions, Deps: []string{StageParse}, Run: s.GenerateQuestions}); err != nil {
		return nil, err
	}
	if err := g.Add(pipeline.Node{Name: StageFAQ, Deps: []string{StageQuestions}, Run: s.BuildFAQ}); err != nil {
		return nil, err
	}
	if err := g.Add(pipeline.Node{Name: StageProductPage, Deps: []string{StageQuestions}, Run: s.BuildProductPage}); err != nil {
		return nil, err
	}
	if err := g.Add(pipeline.Node{Name: StageComparison, Deps: []string{StageQuestions}, Run: s.BuildComparison}); err != nil {
		return nil, err
	}
	if err := g.Add(pipeline.Node{
		Name: StageGate,
		Deps: []string{StageFAQ, StageProductPage, StageComparison},
		Run:  s.QualityGate,
	}); err != nil {
		return nil, err
	}
	if err := g.Add(pipeline.Node{
		Name:  StageWrite,
		Deps:  []string{StageGate},
		Run:   s.Write,
		RunIf: func(v pipeline.View) bool { return v.Phase == pipeline.PhaseValidated },
	}); err != nil {
		return nil, err
	}
	return g, nil
}
