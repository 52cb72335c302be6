// Package engine runs research descriptions through the classification
// pipeline: units, then fields, then subfields, each stage revised until its
// validator is satisfied or the revision budget runs out.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/atlas/internal/classify"
	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/llm"
	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/taxonomy"
)

// Config holds configuration options for the pipeline.
type Config struct {
	MaxRevisions  int
	MaxChoices    int
	MaxTokens     int
	LLMValidation bool
	Enhance       bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxRevisions:  2,
		MaxChoices:    classify.DefaultMaxChoices,
		LLMValidation: true,
	}
}

// Pipeline orchestrates the classification stages for one taxonomy.
type Pipeline struct {
	taxonomy   *taxonomy.Taxonomy
	classifier *classify.Classifier
	validator  *classify.Validator
	enhancer   *classify.Enhancer
	observer   Observer
	store      RunStore
	logger     *slog.Logger
	provider   string
	model      string
	config     Config
}

// describer is implemented by clients that know their provider and model.
type describer interface {
	Provider() string
	Model() string
}

// New creates a pipeline over tax backed by client.
func New(tax *taxonomy.Taxonomy, client llm.Client, config Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxRevisions < 0 {
		config.MaxRevisions = 0
	}
	if config.MaxChoices <= 0 {
		config.MaxChoices = classify.DefaultMaxChoices
	}

	var validatorClient llm.Client
	if config.LLMValidation {
		validatorClient = client
	}

	p := &Pipeline{
		taxonomy:   tax,
		classifier: classify.NewClassifier(client, classify.Options{MaxChoices: config.MaxChoices, MaxTokens: config.MaxTokens}, logger),
		validator:  classify.NewValidator(validatorClient, config.MaxTokens, logger),
		enhancer:   classify.NewEnhancer(client, tax.KnownField, config.MaxTokens, logger),
		observer:   NopObserver{},
		logger:     logger,
		config:     config,
	}
	if d, ok := client.(describer); ok {
		p.provider = d.Provider()
		p.model = d.Model()
	}
	return p
}

// WithObserver sets the progress observer.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	if o == nil {
		o = NopObserver{}
	}
	p.observer = o
	return p
}

// WithStore saves every finished run to store.
func (p *Pipeline) WithStore(store RunStore) *Pipeline {
	p.store = store
	return p
}

// Run classifies one request. A stage that exhausts its revisions ends the
// run with status unsatisfied. Transport and API errors end it with status
// failed; the partial result is returned alongside the error.
func (p *Pipeline) Run(ctx context.Context, req model.Request) (*model.Result, error) {
	req.EnsureID()
	result := &model.Result{
		StartedAt: time.Now().UTC(),
		Request:   req,
		Provider:  p.provider,
		Model:     p.model,
	}

	err := p.run(ctx, result)
	if err != nil {
		result.Status = model.RunFailed
		result.Error = err.Error()
		result.Record("", "failed", map[string]any{"error": err.Error()})
	}
	result.Duration = time.Since(result.StartedAt)

	p.logger.Info("classification finished",
		"request_id", req.ID,
		"status", result.Status,
		"labels", len(result.Labels()),
		"duration", result.Duration)

	p.observer.RunFinished(result)
	p.save(ctx, result)

	return result, err
}

func (p *Pipeline) run(ctx context.Context, result *model.Result) error {
	req := &result.Request
	if req.IsEmpty() {
		return common.ErrEmptyDescription
	}
	if req.College == "" {
		college, ok := p.taxonomy.DefaultCollege()
		if !ok {
			return fmt.Errorf("%w: no college given and the taxonomy lists several", common.ErrInvalidConfig)
		}
		req.College = college
	}

	unitPool, err := p.taxonomy.UnitPool(req.College)
	if err != nil {
		return err
	}
	units, err := p.runStage(ctx, result, unitPool)
	if err != nil || units.Satisfaction != model.Satisfied {
		return err
	}

	fieldPool, err := p.taxonomy.FieldPool(req.College, units.Chosen.Names())
	if err != nil {
		return err
	}
	fields, err := p.runStage(ctx, result, fieldPool)
	if err != nil || fields.Satisfaction != model.Satisfied {
		return err
	}

	if p.config.Enhance {
		if err := p.enhance(ctx, result, fieldPool); err != nil {
			return err
		}
	}

	subfieldPool, err := p.taxonomy.SubfieldPool(req.College, taxonomy.FieldKeys(fields.Chosen))
	if err != nil {
		return err
	}
	subfields, err := p.runStage(ctx, result, subfieldPool)
	if err != nil || subfields.Satisfaction != model.Satisfied {
		return err
	}

	result.Status = model.RunComplete
	return nil
}

// runStage classifies and validates one pool, feeding validator removals back
// into the pool for up to MaxRevisions further attempts. The stage result is
// appended to result and reported to the observer in every case.
func (p *Pipeline) runStage(ctx context.Context, result *model.Result, pool *taxonomy.Pool) (model.StageResult, error) {
	req := result.Request
	stage := model.StageResult{Stage: pool.Stage, Satisfaction: model.Unsatisfied}
	defer func() {
		result.Stages = append(result.Stages, stage)
		if stage.Satisfaction != model.Satisfied && result.Status == "" {
			result.Status = model.RunUnsatisfied
		}
		p.observer.StageFinished(req, stage)
	}()

	current := pool
	for attempt := 1; attempt <= p.config.MaxRevisions+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return stage, err
		}
		stage.Attempts = attempt
		p.observer.StageStarted(req, pool.Stage, attempt)

		out, err := p.classifier.Classify(ctx, req, current)
		if err != nil {
			return stage, err
		}
		result.Record(pool.Stage, "classified", map[string]any{
			"attempt":    attempt,
			"candidates": current.Len(),
			"chosen":     out.Chosen.Names(),
			"dropped":    out.Dropped,
		})

		report := model.ValidationReport{Reason: out.Reason}
		if out.Valid {
			report, err = p.validator.Validate(ctx, req, current, out.Chosen)
			if err != nil {
				return stage, err
			}
		}
		result.Record(pool.Stage, "validated", map[string]any{
			"attempt":  attempt,
			"valid":    report.Valid,
			"reason":   report.Reason,
			"removals": report.Removals,
		})

		stage.Chosen = out.Chosen
		stage.Report = report
		stage.Satisfaction = report.Satisfaction()
		if stage.Satisfaction == model.Satisfied {
			break
		}

		feedback := model.Feedback{Removals: report.Removals}
		stage.Feedback = stage.Feedback.Merge(feedback)
		next := current.Apply(feedback)
		if next.Len() == 0 {
			p.logger.Debug("revision emptied the pool", "stage", pool.Stage, "request_id", req.ID)
			break
		}
		current = next

		if attempt <= p.config.MaxRevisions {
			p.logger.Debug("revising stage",
				"stage", pool.Stage,
				"request_id", req.ID,
				"attempt", attempt,
				"reason", report.Reason,
				"removals", feedback.Removals)
		}
	}

	return stage, nil
}

func (p *Pipeline) enhance(ctx context.Context, result *model.Result, pool *taxonomy.Pool) error {
	p.observer.StageStarted(result.Request, model.StageEnhance, 1)

	proposals, err := p.enhancer.Enhance(ctx, result.Request, pool)
	if err != nil {
		return err
	}
	result.NewFields = proposals
	result.Record(model.StageEnhance, "proposed", map[string]any{"fields": proposals.Names()})

	p.observer.StageFinished(result.Request, model.StageResult{
		Stage:        model.StageEnhance,
		Satisfaction: model.Satisfied,
		Chosen:       proposals,
		Attempts:     1,
	})
	return nil
}

func (p *Pipeline) save(ctx context.Context, result *model.Result) {
	if p.store == nil {
		return
	}
	// canceled runs are recorded too
	saveCtx := context.WithoutCancel(ctx)
	if err := p.store.SaveRun(saveCtx, result); err != nil {
		p.logger.Warn("failed to save run", "request_id", result.Request.ID, "error", err)
	}
}
