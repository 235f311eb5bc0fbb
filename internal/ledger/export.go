package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"equivproof/domain/core"
	"equivproof/domain/verdict"
	"equivproof/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/xuri/excelize/v2"
)

// Document is the export format: target name -> {history, current_level}.
// encoding/json writes map keys sorted, so exports are byte-stable.
type Document map[core.TargetID]verdict.Record

// WriteJSON writes the ledger as indented JSON.
func (l *Ledger) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document(l.Snapshot()))
}

// Export writes the JSON document to path, replacing it atomically.
func (l *Ledger) Export(path string) error {
	var buf bytes.Buffer
	if err := l.WriteJSON(&buf); err != nil {
		return errors.ExportFailed(path, err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return errors.ExportFailed(path, err)
	}
	l.logger.Info("exported %d targets to %s", len(l.history), path)
	return nil
}

// Load rebuilds a ledger from a JSON export. Current levels are recomputed
// from history and must match the exported ones.
func Load(path string, opts ...Option) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ledger %s", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("ledger %s: %w", path, err))
	}
	return FromDocument(doc, opts...)
}

// FromDocument replays an exported document into a fresh ledger. Replayed
// attempts were archived by the session that made them and count as
// archived here; Archive only sends attempts recorded after the load.
func FromDocument(doc Document, opts ...Option) (*Ledger, error) {
	l := New(opts...)
	for target, record := range doc {
		if target == "" {
			return nil, errors.WithCode(errors.CodeInvalidInput, core.ErrEmptyTarget)
		}
		for _, a := range record.History {
			if !a.Level.Valid() {
				return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("%w in history of %s", core.ErrUnknownLevel, target))
			}
			l.history[target] = append(l.history[target], a)
			if a.Passed {
				l.current[target] = a.Level
			}
		}
		if got := l.GetLevel(target); got != record.CurrentLevel {
			return nil, errors.InvalidInput(fmt.Sprintf("%s: exported current level %s does not match history (%s)",
				target, record.CurrentLevel.Tag(), got.Tag()))
		}
		l.archived[target] = len(l.history[target])
	}
	return l, nil
}

// WriteMarkdown renders a human-readable audit report.
func (l *Ledger) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# Verification Ledger\n\n")
	fmt.Fprintf(&b, "Session `%s`\n\n", l.id)

	targets := l.Targets()
	if len(targets) == 0 {
		b.WriteString("No targets recorded.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("| Target | Current level | Highest level | Attempts | Passed |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, t := range targets {
		history := l.history[t]
		passed := 0
		for _, a := range history {
			if a.Passed {
				passed++
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n",
			escapeCell(t.String()), l.GetLevel(t), l.HighestLevel(t), len(history), passed)
	}

	for _, t := range targets {
		fmt.Fprintf(&b, "\n## %s\n\n", t)
		b.WriteString("| # | Level | Challenger | Passed | Details | Timestamp |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for i, a := range l.history[t] {
			fmt.Fprintf(&b, "| %d | %s | %s | %t | %s | %s |\n",
				i+1, a.Level.Tag(), escapeCell(a.Challenger), a.Passed, escapeCell(a.Details), a.Timestamp)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHTML renders the Markdown report as a standalone HTML page.
func (l *Ledger) WriteHTML(w io.Writer) error {
	var md bytes.Buffer
	if err := l.WriteMarkdown(&md); err != nil {
		return err
	}
	_, err := w.Write(RenderHTML(md.Bytes(), "Verification Ledger"))
	return err
}

// RenderHTML converts Markdown to a complete HTML page.
func RenderHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML(md, p, renderer)
}

// ExportXLSX writes one row per attempt to the "ledger" sheet and one row
// per target to the "summary" sheet.
func (l *Ledger) ExportXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const attemptsSheet, summarySheet = "ledger", "summary"
	if err := f.SetSheetName("Sheet1", attemptsSheet); err != nil {
		return errors.ExportFailed(path, err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.ExportFailed(path, err)
	}

	rows := [][]interface{}{{"target", "level", "challenger", "passed", "details", "timestamp"}}
	summary := [][]interface{}{{"target", "current_level", "highest_level", "attempts"}}
	for _, t := range l.Targets() {
		for _, a := range l.history[t] {
			rows = append(rows, []interface{}{t.String(), a.Level.Tag(), a.Challenger, a.Passed, a.Details, a.Timestamp.String()})
		}
		summary = append(summary, []interface{}{t.String(), l.GetLevel(t).Tag(), l.HighestLevel(t).Tag(), len(l.history[t])})
	}

	for sheet, data := range map[string][][]interface{}{attemptsSheet: rows, summarySheet: summary} {
		for i, row := range data {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return errors.ExportFailed(path, err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return errors.ExportFailed(path, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ExportFailed(path, err)
	}
	return nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
