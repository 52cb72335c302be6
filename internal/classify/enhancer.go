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

// Enhancer proposes fields that the taxonomy does not list.
type Enhancer struct {
	client    llm.Client
	known     func(name string) bool
	logger    *slog.Logger
	maxTokens int
}

// NewEnhancer creates an enhancer. known reports whether a field name already
// exists anywhere in the taxonomy; such proposals are discarded.
func NewEnhancer(client llm.Client, known func(string) bool, maxTokens int, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	if known == nil {
		known = func(string) bool { return false }
	}
	return &Enhancer{client: client, known: known, logger: logger, maxTokens: maxTokens}
}

// Enhance returns proposed new fields for the description given the current
// field pool. "choices": null, an unparseable reply, or only known names all
// yield no proposals.
func (e *Enhancer) Enhance(ctx context.Context, req model.Request, pool *taxonomy.Pool) (model.Candidates, error) {
	if e.client == nil {
		return nil, common.ErrNoLLM
	}

	resp, err := e.client.GenerateJSON(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    buildEnhancePrompt(req, pool),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		if errors.Is(err, common.ErrMalformedResponse) {
			e.logger.Warn("unparseable enhancer reply", "request_id", req.ID)
			return nil, nil
		}
		return nil, fmt.Errorf("field enhancement failed: %w", err)
	}

	reply, err := parseChoices(resp.JSON)
	if err != nil || !reply.normalize() {
		return nil, nil
	}

	var proposals model.Candidates
	for _, ch := range reply.list() {
		cand := ch.toCandidate("")
		if cand.Name == "" || pool.Contains(cand.Name) || e.known(cand.Name) || proposals.Contains(cand.Name) {
			continue
		}
		proposals = append(proposals, cand)
	}

	e.logger.Debug("enhanced", "request_id", req.ID, "proposals", proposals.Names())
	return proposals, nil
}
