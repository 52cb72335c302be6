package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/atlas/internal/cli"
	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/engine"
	"github.com/Veraticus/atlas/internal/ingest"
	"github.com/Veraticus/atlas/internal/llm"
	"github.com/Veraticus/atlas/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description...]",
		Short: "Classify a research description",
		Long: `Classify a research description into LAS units, fields, and subfields.

The description can be given as arguments, read from a file or a faculty
profile URL, or typed on stdin (end with a blank line). A batch file classifies
many descriptions at once.

Examples:
  atlas classify "Bayesian methods for state space models"
  atlas classify --file abstract.txt --format json
  atlas classify --url https://example.edu/people/jdoe --enhance
  atlas classify --batch faculty.yaml --concurrency 8
  echo "Medieval manuscripts and book history" | atlas classify`,
		RunE: runClassify,
	}

	cmd.Flags().StringP("file", "f", "", "read the description from a text or HTML file")
	cmd.Flags().StringP("url", "u", "", "fetch the description from a profile page")
	cmd.Flags().StringP("college", "c", "", "college to classify in (default: the only college in the taxonomy)")
	cmd.Flags().String("batch", "", "YAML file with a list of {id, description, college} entries")
	cmd.Flags().Int("concurrency", engine.DefaultConcurrency, "descriptions classified at once in batch mode")
	cmd.Flags().Bool("no-save", false, "do not record runs in the history database")
	cmd.Flags().Bool("no-validate-llm", false, "validate by taxonomy membership only, without the LLM check")
	cmd.Flags().Bool("enhance", false, "ask for new field names the taxonomy is missing")
	cmd.Flags().Int("max-revisions", 2, "revisions per stage after a rejected validation")
	cmd.Flags().Bool("mock", false, "use the offline keyword-overlap model instead of a provider")
	addOutputFlags(cmd)

	_ = viper.BindPFlag("taxonomy.college", cmd.Flags().Lookup("college"))
	_ = viper.BindPFlag("pipeline.enhance", cmd.Flags().Lookup("enhance"))
	_ = viper.BindPFlag("pipeline.max_revisions", cmd.Flags().Lookup("max-revisions"))

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	flags := cmd.Flags()
	noSave, _ := flags.GetBool("no-save")
	batchPath, _ := flags.GetString("batch")
	concurrency, _ := flags.GetInt("concurrency")

	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	tax, err := loadTaxonomy()
	if err != nil {
		return common.NewUserError("Failed to load the taxonomy", err)
	}

	var requests []model.Request
	if batchPath != "" {
		requests, err = readBatch(batchPath, viper.GetString("taxonomy.college"))
	} else {
		var req model.Request
		req, err = readRequest(ctx, cmd, args)
		requests = []model.Request{req}
	}
	if err != nil {
		return err
	}

	client, closeClient, err := classifyClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeClient()

	config := pipelineConfig(cmd)
	stages := 3
	if config.Enhance {
		stages++
	}
	progress := cli.NewStageProgress(cmd.ErrOrStderr(), len(requests), stages)
	pipeline := engine.New(tax, client, config, slog.Default()).WithObserver(progress)

	if !noSave {
		store, storeErr := initStorage(ctx)
		if storeErr != nil {
			return storeErr
		}
		defer closeStorage(store)
		pipeline.WithStore(store)
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runCtx = interrupts.HandleInterrupts(runCtx, !noSave)

	var results []*model.Result
	if len(requests) == 1 {
		var result *model.Result
		result, err = pipeline.Run(runCtx, requests[0])
		results = []*model.Result{result}
		if writeErr := formatter.Result(result); writeErr != nil {
			return writeErr
		}
	} else {
		results, err = pipeline.RunBatch(runCtx, requests, concurrency)
		if writeErr := formatter.Results(results); writeErr != nil {
			return writeErr
		}
	}

	if interrupts.WasInterrupted() || errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		if len(results) > 1 {
			return fmt.Errorf("%d of %d descriptions failed: %w", countFailed(results), len(results), err)
		}
		return fmt.Errorf("classification failed: %w", err)
	}
	return nil
}

func countFailed(results []*model.Result) int {
	n := 0
	for _, r := range results {
		if r != nil && r.Status == model.RunFailed {
			n++
		}
	}
	return n
}

func pipelineConfig(cmd *cobra.Command) engine.Config {
	config := engine.DefaultConfig()
	config.MaxRevisions = viper.GetInt("pipeline.max_revisions")
	if n := viper.GetInt("pipeline.max_choices"); n > 0 {
		config.MaxChoices = n
	}
	config.MaxTokens = viper.GetInt("llm.max_tokens")
	config.Enhance = viper.GetBool("pipeline.enhance")
	config.LLMValidation = viper.GetBool("pipeline.llm_validation")
	if noValidate, _ := cmd.Flags().GetBool("no-validate-llm"); noValidate {
		config.LLMValidation = false
	}
	return config
}

// classifyClient returns the model client and a function that releases it.
func classifyClient(ctx context.Context, cmd *cobra.Command) (llm.Client, func(), error) {
	if useMock, _ := cmd.Flags().GetBool("mock"); useMock {
		slog.Info("Using the offline keyword-overlap model")
		return engine.NewMockLLM(), func() {}, nil
	}

	generator, err := createLLMClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return generator, generator.Close, nil
}

// readRequest builds the request from arguments, --file, --url, or stdin,
// in that order of precedence.
func readRequest(ctx context.Context, cmd *cobra.Command, args []string) (model.Request, error) {
	flags := cmd.Flags()
	filePath, _ := flags.GetString("file")
	url, _ := flags.GetString("url")
	college := viper.GetString("taxonomy.college")

	var (
		req model.Request
		err error
	)
	switch {
	case len(args) > 0:
		req = model.NewRequest(strings.Join(args, " "), college, model.SourceText)
	case filePath != "":
		var text string
		text, err = ingest.ReadFile(filePath)
		req = model.NewRequest(text, college, model.SourceFile)
		req.Origin = filePath
	case url != "":
		var profile ingest.Profile
		profile, err = ingest.FetchProfile(ctx, url)
		req = model.NewRequest(profile.Description(ingest.DefaultMaxChars), college, model.SourceURL)
		req.Origin = url
		if profile.Title != "" {
			slog.Info("Fetched profile", "title", profile.Title, "chars", len(req.Description))
		}
	default:
		var text string
		text, err = readStdin(ctx, cmd.InOrStdin(), cmd.ErrOrStderr())
		req = model.NewRequest(text, college, model.SourceStdin)
	}
	if err != nil {
		return model.Request{}, err
	}
	if req.IsEmpty() {
		return model.Request{}, common.NewUserError("No research description given", common.ErrEmptyDescription)
	}
	return req, nil
}

func readStdin(ctx context.Context, in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			_, _ = fmt.Fprintln(prompt, cli.FormatInfo("Enter a research description, then a blank line:"))
		}
	}

	text, err := cli.NewParagraphReader(in).ReadParagraph(ctx)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	if errors.Is(err, cli.ErrInputCancelled) {
		return "", context.Canceled
	}
	return text, err
}

// batchEntry is one description in a batch file.
type batchEntry struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	College     string `yaml:"college"`
	File        string `yaml:"file"`
}

// readBatch parses a YAML list of descriptions. An entry may point to a file
// instead of giving its description inline.
func readBatch(path, college string) ([]model.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: batch file %s: %v", common.ErrInvalidConfig, path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: batch file %s has no entries", common.ErrInvalidConfig, path)
	}

	requests := make([]model.Request, 0, len(entries))
	for i, e := range entries {
		description := e.Description
		if description == "" && e.File != "" {
			description, err = ingest.ReadFile(e.File)
			if err != nil {
				return nil, fmt.Errorf("batch entry %d: %w", i+1, err)
			}
		}
		if strings.TrimSpace(description) == "" {
			return nil, fmt.Errorf("batch entry %d: %w", i+1, common.ErrEmptyDescription)
		}

		req := model.NewRequest(description, college, model.SourceBatch)
		if e.ID != "" {
			req.ID = e.ID
		}
		if e.College != "" {
			req.College = e.College
		}
		req.Origin = path
		requests = append(requests, req)
	}
	return requests, nil
}
