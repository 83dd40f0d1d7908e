package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"github.com/dustin/go-humanize"
)

// humanBytes renders a byte count like "1.2 MB"
func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func totalSize(entries []models.Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total
}

// diffText generates a plain text diff report
func diffText(r models.DiffResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("  SHADOWSNAP DIFF REPORT\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Left Root:        %s\n", orDash(r.LeftRoot)))
	sb.WriteString(fmt.Sprintf("Right Root:       %s\n", orDash(r.RightRoot)))
	sb.WriteString(fmt.Sprintf("Left Entries:     %d\n", r.LeftCount))
	sb.WriteString(fmt.Sprintf("Right Entries:    %d\n", r.RightCount))
	sb.WriteString(fmt.Sprintf("Left Only:        %d (%s)\n", len(r.LeftOnly), humanBytes(totalSize(r.LeftOnly))))
	sb.WriteString(fmt.Sprintf("Right Only:       %d (%s)\n", len(r.RightOnly), humanBytes(totalSize(r.RightOnly))))
	sb.WriteString(fmt.Sprintf("Changed:          %d\n", len(r.Changed)))
	sb.WriteString("\n")

	writeTextSection(&sb, "LEFT ONLY", r.LeftOnly)
	writeTextSection(&sb, "RIGHT ONLY", r.RightOnly)
	writeTextSection(&sb, "CHANGED", r.Changed)

	if r.Identical() {
		sb.WriteString("No differences.\n")
	}
	return sb.String()
}

func writeTextSection(sb *strings.Builder, title string, entries []models.Entry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("[%d] %-6s %10d  %s  %s\n",
			i+1, e.Kind, e.Size, e.ModifiedAt.Format("2006-01-02 15:04:05"), e.Path))
	}
	sb.WriteString("\n")
}

// shadowText generates a plain text shadow copy report
func shadowText(r *models.ShadowResult) string {
	var sb strings.Builder

	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("  SHADOWSNAP SHADOW COPY REPORT\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Source:           %s\n", r.Source))
	sb.WriteString(fmt.Sprintf("Destination:      %s\n", r.Destination))
	sb.WriteString(fmt.Sprintf("Start Time:       %s\n", r.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("End Time:         %s\n", r.EndTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(r.Duration)))
	sb.WriteString(fmt.Sprintf("Folders Created:  %d\n", len(r.Folders())))
	sb.WriteString(fmt.Sprintf("Files Created:    %d\n", len(r.Files())))
	sb.WriteString(fmt.Sprintf("Overwritten:      %d\n", len(r.Overwritten)))
	sb.WriteString(fmt.Sprintf("Skipped Files:    %d\n", r.Skipped))
	sb.WriteString(fmt.Sprintf("Bytes Copied:     %s\n", humanBytes(r.BytesCopied)))
	sb.WriteString(fmt.Sprintf("Failures:         %d\n", len(r.Failed)))
	if r.SnapshotPath != "" {
		sb.WriteString(fmt.Sprintf("Snapshot:         %s\n", r.SnapshotPath))
	}
	sb.WriteString("\n")

	writeTextSection(&sb, "CREATED", r.Created)
	writeTextSection(&sb, "OVERWRITTEN", r.Overwritten)

	if len(r.Failed) > 0 {
		sb.WriteString("FAILURES\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for i, f := range r.Failed {
			sb.WriteString(fmt.Sprintf("[%d] %s %s\n", i+1, strings.ToUpper(f.Op), f.Dest))
			sb.WriteString(fmt.Sprintf("    Source: %s\n", f.Entry.Path))
			sb.WriteString(fmt.Sprintf("    Error:  %s\n", f.Cause))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
