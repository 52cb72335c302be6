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

// maxRemovals caps how many labels one semantic verdict may reject.
const maxRemovals = 3

// Validator checks chosen labels against the pool, then optionally asks the
// model whether they fit the research.
type Validator struct {
	client    llm.Client
	logger    *slog.Logger
	maxTokens int
}

// NewValidator creates a validator. A nil client limits it to the
// membership check.
func NewValidator(client llm.Client, maxTokens int, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{client: client, logger: logger, maxTokens: maxTokens}
}

// Semantic reports whether the validator consults the model.
func (v *Validator) Semantic() bool { return v.client != nil }

// Validate returns the verdict for chosen. A failed membership check is final.
// A semantic reply that cannot be parsed falls back to the membership verdict.
func (v *Validator) Validate(ctx context.Context, req model.Request, pool *taxonomy.Pool, chosen model.Candidates) (model.ValidationReport, error) {
	report := taxonomy.ValidateMembership(pool, chosen.Names())
	if !report.Valid || v.client == nil {
		return report, nil
	}

	resp, err := v.client.GenerateJSON(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    buildValidatePrompt(req, pool, chosen),
		MaxTokens: v.maxTokens,
	})
	if err != nil {
		if errors.Is(err, common.ErrMalformedResponse) {
			v.logger.Warn("unparseable validator reply, keeping membership verdict", "stage", pool.Stage, "request_id", req.ID)
			return report, nil
		}
		return model.ValidationReport{}, fmt.Errorf("%s validation failed: %w", pool.Stage, err)
	}

	var verdict verdictReply
	if err := resp.Decode(&verdict); err != nil || verdict.IsValid == nil {
		v.logger.Warn("validator reply missing is_valid, keeping membership verdict", "stage", pool.Stage, "request_id", req.ID)
		return report, nil
	}

	var removals []string
	for _, name := range verdict.Removals {
		if len(removals) == maxRemovals {
			break
		}
		if pool.Contains(name) && !contains(removals, name) {
			removals = append(removals, name)
		}
	}

	semantic := model.ValidationReport{
		Valid:    *verdict.IsValid,
		Reason:   verdict.Reason,
		Removals: removals,
	}
	if semantic.Reason == "" {
		semantic.Reason = report.Reason
	}

	v.logger.Debug("validated",
		"stage", pool.Stage,
		"request_id", req.ID,
		"valid", semantic.Valid,
		"removals", semantic.Removals)

	return semantic, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
