package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/llm"
	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/taxonomy"
)

// DefaultMaxChoices is how many candidates a stage keeps when unset.
const DefaultMaxChoices = 5

// Output is the result of one classification attempt.
type Output struct {
	Reason  string
	Chosen  model.Candidates
	Dropped []string
	Valid   bool
}

// Classifier ranks the candidates of a pool against a research description.
type Classifier struct {
	client     llm.Client
	logger     *slog.Logger
	maxChoices int
	maxTokens  int
}

// Options tunes a Classifier.
type Options struct {
	MaxChoices int
	MaxTokens  int
}

// NewClassifier creates a classifier backed by client.
func NewClassifier(client llm.Client, opts Options, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxChoices <= 0 {
		opts.MaxChoices = DefaultMaxChoices
	}
	return &Classifier{
		client:     client,
		logger:     logger,
		maxChoices: opts.MaxChoices,
		maxTokens:  opts.MaxTokens,
	}
}

// Classify asks the model to rank the pool. Names outside the pool are
// dropped. The output is invalid when the reply cannot be parsed or no valid
// choice remains; the error is non-nil only for transport or API failures.
func (c *Classifier) Classify(ctx context.Context, req model.Request, pool *taxonomy.Pool) (Output, error) {
	if c.client == nil {
		return Output{}, common.ErrNoLLM
	}
	if pool == nil || pool.Len() == 0 {
		return Output{}, fmt.Errorf("%w: nothing to classify", common.ErrEmptyPool)
	}

	resp, err := c.client.GenerateJSON(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    buildClassifyPrompt(req, pool, c.maxChoices),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		if errors.Is(err, common.ErrMalformedResponse) {
			c.logger.Warn("unparseable classifier reply", "stage", pool.Stage, "request_id", req.ID, "error", err)
			return Output{Reason: "model reply was not valid JSON"}, nil
		}
		return Output{}, fmt.Errorf("%s classification failed: %w", pool.Stage, err)
	}

	reply, err := parseChoices(resp.JSON)
	if err != nil || !reply.normalize() {
		c.logger.Warn("classifier reply has no choices", "stage", pool.Stage, "request_id", req.ID, "error", err)
		return Output{Reason: "model reply did not contain choices"}, nil
	}

	var out Output
	for _, ch := range reply.list() {
		cand := ch.toCandidate("")
		if !pool.Contains(cand.Name) {
			out.Dropped = append(out.Dropped, cand.Name)
			continue
		}
		if out.Chosen.Contains(cand.Name) {
			continue
		}
		cand.Parent = pool.Parent(cand.Name)
		out.Chosen = append(out.Chosen, cand)
	}

	out.Chosen = out.Chosen.TopN(c.maxChoices)
	if err := out.Chosen.Validate(); err != nil {
		c.logger.Warn("classifier reply has invalid choices", "stage", pool.Stage, "request_id", req.ID, "error", err)
		return Output{Reason: fmt.Sprintf("model reply had invalid choices: %v", err), Dropped: out.Dropped}, nil
	}
	out.Valid = len(out.Chosen) > 0
	if !out.Valid {
		out.Reason = fmt.Sprintf("no %s choices matched the candidates", pool.Stage)
	}

	c.logger.Debug("classified",
		"stage", pool.Stage,
		"request_id", req.ID,
		"chosen", out.Chosen.Names(),
		"dropped", out.Dropped)

	return out, nil
}
