package formatter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tordrt/datadict/internal/schema"
)

const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Formatter writes a schema snapshot
type Formatter interface {
	Format(s *schema.Schema) error
}

// New returns the single-stream formatter for format
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(w), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want text or markdown)", format)
}

// MultiFileFormatter writes an index file plus one file per table into Dir
type MultiFileFormatter struct {
	Dir      string
	Markdown bool
}

// NewMultiFileFormatter creates a directory formatter; format is "text" or "markdown"
func NewMultiFileFormatter(dir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{Dir: dir, Markdown: format == FormatMarkdown || format == "md"}
}

func (f *MultiFileFormatter) ext() string {
	if f.Markdown {
		return ".md"
	}
	return ".txt"
}

// Format writes _overview plus <table> for every table, replacing existing files
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tables := slices.Clone(s.Tables)
	slices.SortFunc(tables, func(a, b schema.Table) int { return strings.Compare(a.Name, b.Name) })

	if err := f.write("_overview", func(w io.Writer) { f.overview(w, tables) }); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range tables {
		err := f.write(table.Name, func(w io.Writer) {
			if f.Markdown {
				NewMarkdownFormatter(w).FormatTable(table)
			} else {
				NewTextFormatter(w).FormatTable(table)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}
	return nil
}

// write creates name in Dir and reports write and close failures
func (f *MultiFileFormatter) write(name string, fill func(w io.Writer)) (err error) {
	file, err := os.Create(filepath.Join(f.Dir, name+f.ext()))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	bw := bufio.NewWriter(file)
	fill(bw)
	return bw.Flush()
}

func (f *MultiFileFormatter) overview(w io.Writer, tables []schema.Table) {
	if f.Markdown {
		_, _ = fmt.Fprintf(w, "# Schema Overview\n\n%d tables, one file each: `<table>%s`\n\n", len(tables), f.ext())
		for _, table := range tables {
			_, _ = fmt.Fprintf(w, "- **%s** (%s)\n", table.Name, summary(table))
		}
		return
	}

	_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW: %d tables, one file each: <table>%s\n\n", len(tables), f.ext())
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "%s (%s)\n", table.Name, summary(table))
	}
}

func summary(table schema.Table) string {
	s := fmt.Sprintf("%d columns, %d indexes", len(table.Columns), len(table.Indexes))
	if table.RowCount != nil {
		s += fmt.Sprintf(", %d rows", *table.RowCount)
	}
	return s
}
