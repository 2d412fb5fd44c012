package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportMarkdown renders a run as a markdown document.
func ExportMarkdown(run *Run) string {
	var b strings.Builder

	title := run.KataSlug
	if title == "" {
		title = "Kata run"
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	b.WriteString(fmt.Sprintf("- **Run:** %s\n", run.ID))
	b.WriteString(fmt.Sprintf("- **Mode:** %s\n", run.Mode))
	b.WriteString(fmt.Sprintf("- **Status:** %s\n", run.Status))
	b.WriteString(fmt.Sprintf("- **Created:** %s\n", run.CreatedAt.Format("2006-01-02 15:04:05")))
	if run.DurationMs > 0 {
		b.WriteString(fmt.Sprintf("- **Duration:** %dms\n", run.DurationMs))
	}
	b.WriteString("\n---\n\n")

	b.WriteString(fmt.Sprintf("## Code\n\n```python\n%s\n```\n\n", run.Code))

	if run.Logs != "" {
		b.WriteString(fmt.Sprintf("## Output\n\n```\n%s\n```\n\n", run.Logs))
	}
	if run.Error != "" {
		b.WriteString(fmt.Sprintf("## Error\n\n%s\n\n", run.Error))
	}
	if run.Hint != "" {
		b.WriteString(fmt.Sprintf("## Hint\n\n%s\n\n", run.Hint))
	}
	if run.HasImage {
		b.WriteString("_This run produced an image (not included in the export)._\n")
	}

	return b.String()
}

// ExportJSON renders a run as formatted JSON.
func ExportJSON(run *Run) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}
