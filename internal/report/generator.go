package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"go.uber.org/zap"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorOrange = "\033[38;5;208m"
	colorGray   = "\033[38;5;245m"
)

// Report formats
const (
	FormatConsole  = ""
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// Stdout as output file writes the report to the generator's writer
const Stdout = "-"

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		// Milliseconds
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		// Seconds
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		// Minutes and seconds
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	// Hours, minutes and seconds
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// Generator renders diff and shadow results
type Generator struct {
	out    io.Writer
	logger *zap.Logger
	limit  int
	color  bool
}

// NewGenerator creates a report generator writing console output to out.
// limit caps the number of items listed per section on the console; 0 lists all.
func NewGenerator(out io.Writer, limit int, color bool, logger *zap.Logger) *Generator {
	return &Generator{
		out:    out,
		logger: logger,
		limit:  limit,
		color:  color,
	}
}

// GenerateDiff prints r to the console when format is empty, otherwise writes
// it to outputFile and returns the absolute path written
func (g *Generator) GenerateDiff(r models.DiffResult, format, outputFile string) (string, error) {
	if format == FormatConsole {
		g.printDiff(r)
		return "", nil
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText, "txt":
		data = []byte(diffText(r))
	case FormatMarkdown, "markdown":
		data = []byte(diffMarkdown(r))
	case FormatJSON:
		data, err = diffJSON(r)
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}
	return g.write("DIFF", format, outputFile, data)
}

// GenerateShadow prints r to the console when format is empty, otherwise
// writes it to outputFile and returns the absolute path written
func (g *Generator) GenerateShadow(r *models.ShadowResult, format, outputFile string) (string, error) {
	if format == FormatConsole {
		g.printShadow(r)
		return "", nil
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText, "txt":
		data = []byte(shadowText(r))
	case FormatMarkdown, "markdown":
		data = []byte(shadowMarkdown(r))
	case FormatJSON:
		data, err = shadowJSON(r)
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}
	return g.write("SHADOW", format, outputFile, data)
}

func (g *Generator) write(kind, format, outputFile string, data []byte) (string, error) {
	if outputFile == Stdout {
		_, err := g.out.Write(data)
		return "", err
	}

	// Generate default filename if not specified
	if outputFile == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputFile = fmt.Sprintf("SHADOWSNAP-%s-%s.%s", kind, timestamp, extensionFor(format))
	}

	g.logger.Info("Generating report",
		zap.String("format", format),
		zap.String("output", outputFile))

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	// Get absolute path
	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

func extensionFor(format string) string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatMarkdown, "markdown":
		return "md"
	default:
		return "txt"
	}
}

func (g *Generator) paint(color, s string) string {
	if !g.color {
		return s
	}
	return color + s + colorReset
}

// printDiff prints a diff summary and the first items of each side
func (g *Generator) printDiff(r models.DiffResult) {
	w := g.out
	fmt.Fprintln(w)
	fmt.Fprintln(w, g.paint(colorBold+colorOrange, "DIFF COMPLETE"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s      %s (%d entries)\n", g.paint(colorGray, "Left:"), orDash(r.LeftRoot), r.LeftCount)
	fmt.Fprintf(w, "  %s     %s (%d entries)\n", g.paint(colorGray, "Right:"), orDash(r.RightRoot), r.RightCount)
	fmt.Fprintln(w)

	if r.Identical() {
		fmt.Fprintf(w, "  %s\n\n", g.paint(colorBold+colorGreen, "✓ Trees are identical"))
		return
	}

	g.printSection("Missing on the right", r.LeftOnly, colorRed)
	g.printSection("Missing on the left", r.RightOnly, colorYellow)
	if len(r.Changed) > 0 {
		g.printSection("Changed", r.Changed, colorCyan)
	}
	fmt.Fprintln(w)
}

func (g *Generator) printSection(title string, entries []models.Entry, color string) {
	w := g.out
	fmt.Fprintf(w, "  %s %d\n", g.paint(colorBold+color, title+":"), len(entries))

	shown := entries
	if g.limit > 0 && len(shown) > g.limit {
		shown = shown[:g.limit]
	}
	for _, e := range shown {
		fmt.Fprintf(w, "      %s\n", e.String())
	}
	if hidden := len(entries) - len(shown); hidden > 0 {
		fmt.Fprintf(w, "      %s\n", g.paint(colorGray, fmt.Sprintf("... and %d more", hidden)))
	}
}

// printShadow prints the outcome of a shadow copy
func (g *Generator) printShadow(r *models.ShadowResult) {
	w := g.out
	fmt.Fprintln(w)
	fmt.Fprintln(w, g.paint(colorBold+colorOrange, "SHADOW COPY COMPLETE"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s      %s\n", g.paint(colorGray, "From:"), r.Source)
	fmt.Fprintf(w, "  %s        %s\n", g.paint(colorGray, "To:"), r.Destination)
	fmt.Fprintf(w, "  %s   %d\n", g.paint(colorGray, "Folders:"), len(r.Folders()))
	fmt.Fprintf(w, "  %s     %d new, %d overwritten (%s)\n", g.paint(colorGray, "Files:"),
		len(r.Files()), len(r.Overwritten), humanBytes(r.BytesCopied))
	fmt.Fprintf(w, "  %s   %d\n", g.paint(colorGray, "Skipped:"), r.Skipped)
	fmt.Fprintf(w, "  %s  %s\n", g.paint(colorGray, "Duration:"), FormatDuration(r.Duration))
	if r.SnapshotPath != "" {
		fmt.Fprintf(w, "  %s  %s\n", g.paint(colorGray, "Snapshot:"), r.SnapshotPath)
	}
	fmt.Fprintln(w)

	if len(r.Failed) == 0 {
		fmt.Fprintf(w, "  %s\n\n", g.paint(colorBold+colorGreen, "✓ No failures"))
		return
	}

	fmt.Fprintf(w, "  %s\n", g.paint(colorBold+colorRed, fmt.Sprintf("⚠ FAILURES: %d", len(r.Failed))))
	shown := r.Failed
	if g.limit > 0 && len(shown) > g.limit {
		shown = shown[:g.limit]
	}
	for _, f := range shown {
		fmt.Fprintf(w, "      [%s] %s: %s\n", f.Op, f.Dest, f.Cause)
	}
	if hidden := len(r.Failed) - len(shown); hidden > 0 {
		fmt.Fprintf(w, "      %s\n", g.paint(colorGray, fmt.Sprintf("... and %d more", hidden)))
	}
	fmt.Fprintln(w)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
