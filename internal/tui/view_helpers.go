package tui

import (
	"fmt"
	"strings"

	"github.com/MKhiriev/go-record-sync/models"
)

const uiDivider = "──────────────────────────────────────────────────────"

func renderPage(title, data, hotKeys string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString("  ")
	b.WriteString(uiDivider)
	b.WriteString("\n\n")

	if strings.TrimSpace(data) != "" {
		for _, line := range strings.Split(data, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("  -\n")
	}

	b.WriteString("\n")
	b.WriteString("  ")
	b.WriteString(uiDivider)
	b.WriteString("\n")

	if strings.TrimSpace(hotKeys) != "" {
		b.WriteString("  ")
		b.WriteString(helpStyle.Render(hotKeys))
		b.WriteString("\n")
	}
	b.WriteString("  ")
	b.WriteString(helpStyle.Render("ctrl+c: quit"))

	return b.String()
}

// formatValue renders one field value on a single line.
func formatValue(v models.Value) string {
	switch v.Kind() {
	case models.KindNull:
		return "-"
	case models.KindScalar:
		s, _ := v.String()
		return s
	case models.KindRecord:
		r, _ := v.Record()
		return strings.TrimSpace(r.Type + " " + r.ID)
	case models.KindList:
		list, _ := v.List()
		return fmt.Sprintf("[%d items]", len(list))
	case models.KindSeed:
		seed, _ := v.Seed()
		return fmt.Sprintf("<subquery: %d records>", seed.Size)
	}
	return ""
}

func fieldText(r models.Record, name string) string {
	if name == models.FieldID {
		return r.ID
	}
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	return formatValue(v)
}

func fitText(v string, max int) string {
	r := []rune(v)
	if max <= 0 || len(r) <= max {
		return v
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
