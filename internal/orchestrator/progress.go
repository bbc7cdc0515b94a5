package orchestrator

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// progress wraps an optional progress bar; the zero value does nothing
type progress struct {
	bar    *progressbar.ProgressBar
	logger *zap.Logger
}

func newProgress(w io.Writer, total int, logger *zap.Logger) *progress {
	p := &progress{logger: logger}
	if w == nil || total == 0 {
		return p
	}

	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Enriching records...[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
	return p
}

func (p *progress) add() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		p.logger.Debug("Failed to update progress bar", zap.Error(err))
	}
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		p.logger.Debug("Failed to finish progress bar", zap.Error(err))
	}
}
