package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/atlas/internal/engine"
	"github.com/Veraticus/atlas/internal/model"
)

// StageProgress shows pipeline progress on a terminal. For a single run the
// bar advances once per finished stage; for a batch it advances once per
// finished run.
type StageProgress struct {
	bar  *progressbar.ProgressBar
	runs int
	done int
	mu   sync.Mutex
}

var _ engine.Observer = (*StageProgress)(nil)

// NewStageProgress creates a progress display for runs requests. stages is
// the number of stages a single run goes through.
func NewStageProgress(w io.Writer, runs, stages int) *StageProgress {
	total := stages
	description := "[cyan][bold]Classifying...[reset]"
	if runs > 1 {
		total = runs
		description = fmt.Sprintf("[cyan][bold]Classifying %d descriptions...[reset]", runs)
	}

	p := &StageProgress{runs: runs}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// StageStarted implements engine.Observer.
func (p *StageProgress) StageStarted(_ model.Request, stage model.Stage, attempt int) {
	if p.runs > 1 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	desc := fmt.Sprintf("[cyan][bold]%s[reset] stage", stage)
	if attempt > 1 {
		desc += fmt.Sprintf(" (revision %d)", attempt-1)
	}
	p.bar.Describe(desc)
}

// StageFinished implements engine.Observer.
func (p *StageProgress) StageFinished(_ model.Request, _ model.StageResult) {
	if p.runs > 1 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.add()
}

// RunFinished implements engine.Observer.
func (p *StageProgress) RunFinished(_ *model.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if p.runs > 1 {
		p.add()
		if p.done < p.runs {
			return
		}
	}
	if p.bar.IsFinished() {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

func (p *StageProgress) add() {
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Completed reports how far the bar has advanced.
func (p *StageProgress) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.bar.State().CurrentNum)
}
