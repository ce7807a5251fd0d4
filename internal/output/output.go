package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oriys/nimap/internal/manifest"
	"gopkg.in/yaml.v3"
)

// Format represents output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q: want table, json or yaml", s)
	}
}

// Printer handles formatted output
type Printer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewPrinter creates a new printer
func NewPrinter(format Format) *Printer {
	return &Printer{
		format:  format,
		writer:  os.Stdout,
		noColor: os.Getenv("NO_COLOR") != "",
	}
}

// SetWriter sets the output writer
func (p *Printer) SetWriter(w io.Writer) {
	p.writer = w
}

// SetNoColor disables ANSI colors
func (p *Printer) SetNoColor(v bool) {
	p.noColor = v
}

// Print outputs data in the configured format
func (p *Printer) Print(data interface{}) error {
	switch p.format {
	case FormatYAML:
		return p.printYAML(data)
	default:
		return p.printJSON(data)
	}
}

func (p *Printer) structured() bool {
	return p.format == FormatJSON || p.format == FormatYAML
}

func (p *Printer) printJSON(data interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// Color codes
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
)

// Colorize adds color to text
func (p *Printer) Colorize(color, text string) string {
	if p.noColor {
		return text
	}
	return color + text + Reset
}

// TableWriter creates a tabwriter for aligned output
func (p *Printer) TableWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
}

func (p *Printer) statusColor(s manifest.Status) string {
	switch s {
	case manifest.StatusOK:
		return Green
	case manifest.StatusModified, manifest.StatusMissing:
		return Red
	default:
		return Yellow
	}
}

// PrintVerifyReport prints a verification report. The table form lists only
// the paths that need attention, followed by the counts. A report whose only
// problems are untracked files ends in a warning instead of an error.
func (p *Printer) PrintVerifyReport(rep *manifest.Report) error {
	if p.structured() {
		return p.Print(rep)
	}

	w := p.TableWriter()
	problems := 0
	for _, r := range rep.Results {
		if r.Status == manifest.StatusOK {
			continue
		}
		if problems == 0 {
			fmt.Fprintln(w, p.Colorize(Bold, "STATUS\tPATH\tEXPECTED\tACTUAL"))
		}
		problems++
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.Colorize(p.statusColor(r.Status), string(r.Status)),
			r.Path,
			orDash(r.Expected),
			orDash(r.Actual),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d ok, %d modified, %d missing, %d untracked",
		rep.Counts[manifest.StatusOK],
		rep.Counts[manifest.StatusModified],
		rep.Counts[manifest.StatusMissing],
		rep.Counts[manifest.StatusUntracked],
	)
	switch {
	case rep.Clean():
		p.Success("%s", summary)
	case rep.Counts[manifest.StatusModified]+rep.Counts[manifest.StatusMissing] == 0:
		// Every listed file matches; the manifest is only out of date.
		p.Warning("%s", summary)
	default:
		p.Error("%s", summary)
	}
	return nil
}

// Resolution is the answer to one resolve query.
type Resolution struct {
	Key   string   `json:"key" yaml:"key"`
	ID    string   `json:"ni,omitempty" yaml:"ni,omitempty"`
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// PrintResolutions prints resolve results
func (p *Printer) PrintResolutions(rows []Resolution) error {
	if p.structured() {
		return p.Print(rows)
	}

	w := p.TableWriter()
	fmt.Fprintln(w, p.Colorize(Bold, "KEY\tNI\tPATH"))
	for _, row := range rows {
		switch {
		case row.Error != "":
			fmt.Fprintf(w, "%s\t%s\t%s\n", row.Key, "-", p.Colorize(Red, row.Error))
		case len(row.Paths) == 0:
			fmt.Fprintf(w, "%s\t%s\t%s\n", row.Key, row.ID, p.Colorize(Yellow, "not found"))
		default:
			for _, path := range row.Paths {
				fmt.Fprintf(w, "%s\t%s\t%s\n", row.Key, row.ID, p.Colorize(Cyan, path))
			}
		}
	}
	return w.Flush()
}

// URIInfo lists the names of one file's content.
type URIInfo struct {
	File      string `json:"file" yaml:"file"`
	ID        string `json:"ni" yaml:"ni"`
	URI       string `json:"uri" yaml:"uri"`
	WellKnown string `json:"well_known" yaml:"well_known"`
	CID       string `json:"cid" yaml:"cid"`
	Digest    string `json:"digest" yaml:"digest"`
}

// PrintURIs prints URI info for each file
func (p *Printer) PrintURIs(rows []URIInfo) error {
	if p.structured() {
		return p.Print(rows)
	}

	for i, row := range rows {
		if i > 0 {
			fmt.Fprintln(p.writer)
		}
		fmt.Fprintf(p.writer, "%s %s\n", p.Colorize(Bold, "File:"), p.Colorize(Cyan, row.File))
		fmt.Fprintf(p.writer, "  %s %s\n", p.Colorize(Gray, "URI:"), row.URI)
		fmt.Fprintf(p.writer, "  %s %s\n", p.Colorize(Gray, "Well-Known:"), row.WellKnown)
		fmt.Fprintf(p.writer, "  %s %s\n", p.Colorize(Gray, "CID:"), row.CID)
		fmt.Fprintf(p.writer, "  %s %s\n", p.Colorize(Gray, "Digest:"), row.Digest)
	}
	return nil
}

// PrintSummary prints the summary of a generate run
func (p *Printer) PrintSummary(output string, sum manifest.Summary) error {
	if p.structured() {
		return p.Print(struct {
			Output  string           `json:"output" yaml:"output"`
			Summary manifest.Summary `json:"summary" yaml:"summary"`
		}{output, sum})
	}
	p.Success("%s: %d files, %d bytes, %d directories (%d pruned) in %s",
		output, sum.Files, sum.Bytes, sum.Dirs, sum.Pruned, sum.Duration.Round(time.Millisecond))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Green, "✓ ")+msg)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Red, "✗ ")+msg)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Yellow, "⚠ ")+msg)
}
