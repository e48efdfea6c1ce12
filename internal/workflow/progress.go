package workflow

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"tolk/internal/logging"
)

// progressReporter receives the number of chunks finished so far. Done is
// called once with the outcome of the pass.
type progressReporter interface {
	Update(done int)
	Done(err error)
}

// newProgress renders a bar when w is a terminal and falls back to sampled
// log lines otherwise.
func newProgress(w io.Writer, total int, logger *slog.Logger) progressReporter {
	if total > 0 && isTerminal(w) {
		bar := newBar(w, total)
		return &barProgress{bar: bar}
	}
	return &logProgress{
		logger:  logger,
		sampler: logging.NewProgressSampler(10),
		total:   total,
	}
}

func newBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("translating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Update(done int) {
	_ = p.bar.Set(done)
}

// Done completes the bar on success. A failed or interrupted pass leaves it
// at the last finished chunk.
func (p *barProgress) Done(err error) {
	if err != nil {
		_ = p.bar.Exit()
		return
	}
	_ = p.bar.Finish()
}

type logProgress struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int
}

func (p *logProgress) Update(done int) {
	if p.logger == nil || !p.sampler.ShouldLog(done, p.total) {
		return
	}
	percent := 100.0
	if p.total > 0 {
		percent = float64(done) / float64(p.total) * 100
	}
	p.logger.Info("translation progress",
		logging.Int("done", done),
		logging.Int("total", p.total),
		logging.Float64("percent", percent),
		logging.String(logging.FieldEventType, "translation_progress"),
	)
}

func (p *logProgress) Done(error) {}
