package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rodaine/table"
	"gopkg.in/yaml.v3"

	"github.com/masahif/linkaudit/internal/config"
)

// Render writes the report to w in the given format.
func Render(w io.Writer, r *Report, format string) error {
	switch format {
	case config.FormatText, "":
		return renderText(w, r)
	case config.FormatTable:
		return renderTable(w, r)
	case config.FormatJSON:
		return renderJSON(w, r)
	case config.FormatYAML:
		return renderYAML(w, r)
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownFormat, format)
	}
}

func renderText(w io.Writer, r *Report) error {
	ew := &errWriter{w: w}
	ew.printf("Checked links: %s\n", humanize.Comma(int64(r.Checked)))
	ew.printf("Visited links: %s\n", humanize.Comma(int64(r.Visited)))
	ew.printf("Broken links: %s\n", humanize.Comma(int64(r.BrokenCount)))
	ew.printf("Maximum tasks: %s\n", humanize.Comma(int64(r.PeakTasks)))
	ew.printf("Crawling took: %s\n", formatDuration(r.Duration))
	if !r.Complete {
		ew.printf("Crawl did not finish; results are partial\n")
	}
	for _, line := range r.Lines() {
		ew.printf("%s\n", line)
	}
	return ew.err
}

func renderTable(w io.Writer, r *Report) error {
	ew := &errWriter{w: w}
	ew.printf("%s: %s checked, %s visited, %s broken (%s)\n",
		r.RootURL,
		humanize.Comma(int64(r.Checked)),
		humanize.Comma(int64(r.Visited)),
		humanize.Comma(int64(r.BrokenCount)),
		formatDuration(r.Duration))
	if ew.err != nil || len(r.Broken) == 0 {
		return ew.err
	}

	tbl := table.New("Broken Link", "Status", "Reason", "Found On").WithWriter(ew)
	for _, b := range r.Broken {
		status := "-"
		if b.StatusCode > 0 {
			status = fmt.Sprint(b.StatusCode)
		}
		tbl.AddRow(b.URL, status, b.Reason, b.Referrer)
	}
	tbl.Print()
	return ew.err
}

func renderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return nil
}

func renderYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report as YAML: %w", err)
	}
	return enc.Close()
}

// formatDuration renders short runs exactly and long ones in words.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(time.Millisecond).String()
	}
	start := time.Unix(0, 0)
	return strings.TrimSpace(humanize.RelTime(start, start.Add(d), "", ""))
}

// errWriter keeps the first write error so callers can check once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e, format, args...)
}
