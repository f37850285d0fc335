package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar reports migration progress on a terminal
type Bar struct {
	*progressbar.ProgressBar
}

// NewBar creates a bar counting to max steps
func NewBar(w io.Writer, max int64, description string) *Bar {
	bar := progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)

	return &Bar{ProgressBar: bar}
}

// Step moves the bar to a step and shows its label
func (b *Bar) Step(n int, label string) {
	b.Describe(label)
	_ = b.Set(n)
}

// Finish completes the bar
func (b *Bar) Finish() {
	if b.ProgressBar == nil {
		return
	}
	_ = b.ProgressBar.Finish()
}
