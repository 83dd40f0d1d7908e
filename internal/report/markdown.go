package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// diffMarkdown generates a Markdown diff report
func diffMarkdown(r models.DiffResult) string {
	var sb strings.Builder

	sb.WriteString("# Shadowsnap Diff Report\n\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Left | Right |\n")
	sb.WriteString("|-----------|------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Root | `%s` | `%s` |\n", orDash(r.LeftRoot), orDash(r.RightRoot)))
	sb.WriteString(fmt.Sprintf("| Entries | %d | %d |\n", r.LeftCount, r.RightCount))
	sb.WriteString(fmt.Sprintf("| Only here | %d | %d |\n", len(r.LeftOnly), len(r.RightOnly)))
	sb.WriteString(fmt.Sprintf("| Only here (size) | %s | %s |\n",
		humanBytes(totalSize(r.LeftOnly)), humanBytes(totalSize(r.RightOnly))))
	sb.WriteString(fmt.Sprintf("| **Changed** | **%d** | |\n", len(r.Changed)))
	sb.WriteString("\n")

	if r.Identical() {
		sb.WriteString("> ✅ **Trees are identical**\n")
		return sb.String()
	}

	writeMarkdownTable(&sb, "Left Only", r.LeftOnly)
	writeMarkdownTable(&sb, "Right Only", r.RightOnly)
	writeMarkdownTable(&sb, "Changed", r.Changed)
	return sb.String()
}

func writeMarkdownTable(sb *strings.Builder, title string, entries []models.Entry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString("| # | Kind | Size | Modified | Path |\n")
	sb.WriteString("|---|------|------|----------|------|\n")
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | `%s` |\n",
			i+1, e.Kind, humanBytes(e.Size), e.ModifiedAt.Format("2006-01-02 15:04:05"), escapeMarkdown(e.Path)))
	}
	sb.WriteString("\n")
}

// shadowMarkdown generates a Markdown shadow copy report
func shadowMarkdown(r *models.ShadowResult) string {
	var sb strings.Builder

	sb.WriteString("# Shadowsnap Shadow Copy Report\n\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Source | `%s` |\n", r.Source))
	sb.WriteString(fmt.Sprintf("| Destination | `%s` |\n", r.Destination))
	sb.WriteString(fmt.Sprintf("| Start Time | %s |\n", r.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(r.Duration)))
	sb.WriteString(fmt.Sprintf("| Folders Created | %d |\n", len(r.Folders())))
	sb.WriteString(fmt.Sprintf("| Files Created | %d |\n", len(r.Files())))
	sb.WriteString(fmt.Sprintf("| Overwritten | %d |\n", len(r.Overwritten)))
	sb.WriteString(fmt.Sprintf("| Skipped Files | %d |\n", r.Skipped))
	sb.WriteString(fmt.Sprintf("| Bytes Copied | %s |\n", humanBytes(r.BytesCopied)))
	sb.WriteString(fmt.Sprintf("| **Failures** | **%d** |\n", len(r.Failed)))
	sb.WriteString("\n")

	writeMarkdownTable(&sb, "Created", r.Created)
	writeMarkdownTable(&sb, "Overwritten", r.Overwritten)

	if len(r.Failed) == 0 {
		sb.WriteString("> ✅ **No failures**\n")
		return sb.String()
	}

	sb.WriteString("## Failures\n\n")
	sb.WriteString("| # | Operation | Destination | Error |\n")
	sb.WriteString("|---|-----------|-------------|-------|\n")
	for i, f := range r.Failed {
		sb.WriteString(fmt.Sprintf("| %d | %s | `%s` | %s |\n",
			i+1, f.Op, escapeMarkdown(f.Dest), escapeMarkdown(f.Cause)))
	}
	sb.WriteString("\n")
	return sb.String()
}

// escapeMarkdown keeps pipes from breaking table cells
func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
