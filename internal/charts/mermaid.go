package charts

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"taxidash/internal/format"
)

// MermaidBackend renders slots as Mermaid xychart-beta blocks; lists become text rows.
type MermaidBackend struct {
	mu       sync.Mutex
	rendered map[string]string
	draws    int
}

// NewMermaidBackend creates an empty backend.
func NewMermaidBackend() *MermaidBackend {
	return &MermaidBackend{rendered: make(map[string]string)}
}

type mermaidHandle struct {
	b    *MermaidBackend
	slot string
}

func (h *mermaidHandle) Destroy() {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	delete(h.b.rendered, h.slot)
}

// Draw renders spec into slot. Drawing over a live slot is an error.
func (b *MermaidBackend) Draw(slot string, spec Spec) (Handle, error) {
	var out string
	switch spec.Kind {
	case Line, Bar, HorizontalBar, Histogram:
		out = xyChart(spec)
	case List:
		out = listRows(spec)
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.rendered[slot]; busy {
		return nil, fmt.Errorf("slot %s still holds a live chart", slot)
	}
	b.rendered[slot] = out
	b.draws++
	return &mermaidHandle{b: b, slot: slot}, nil
}

// Rendered returns the current output of a slot.
func (b *MermaidBackend) Rendered(slot string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.rendered[slot]
	return s, ok
}

// Slots lists the live slots in name order.
func (b *MermaidBackend) Slots() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.rendered))
	for s := range b.rendered {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Draws counts every Draw call, for diagnostics.
func (b *MermaidBackend) Draws() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draws
}

func xyChart(spec Spec) string {
	if len(spec.Points) == 0 {
		return ""
	}

	labels := make([]string, 0, len(spec.Points))
	main := make([]string, 0, len(spec.Points))
	alt := make([]string, 0, len(spec.Points))
	hasAlt := false
	maxVal := 0.0

	for _, p := range spec.Points {
		labels = append(labels, fmt.Sprintf("%q", p.Label))
		v := p.Value
		if spec.Kind == Histogram {
			v = float64(p.Percent)
		}
		maxVal = math.Max(maxVal, v)

		// Muted, peak and selected points go into a second series so they get their own palette colour.
		if p.Muted || p.Selected || (spec.Kind == Histogram && p.Peak) {
			hasAlt = true
			main = append(main, "0")
			alt = append(alt, num(v))
		} else {
			main = append(main, num(v))
			alt = append(alt, "0")
		}
	}

	palette := Gold
	if hasAlt {
		palette += ", " + altColor(spec)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("---\nconfig:\n  themeVariables:\n    xyChart:\n")
	sb.WriteString(fmt.Sprintf("      plotColorPalette: \"%s\"\n---\n", palette))
	if spec.Kind == HorizontalBar {
		sb.WriteString("xychart-beta horizontal\n")
	} else {
		sb.WriteString("xychart-beta\n")
	}
	title := spec.Title
	if spec.Period != "" {
		title += " (" + spec.Period + ")"
	}
	sb.WriteString(fmt.Sprintf("    title %q\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis %q 0 --> %d\n", spec.YLabel, int(math.Ceil(maxVal*1.1))+1))

	series := "bar"
	if spec.Kind == Line {
		series = "line"
	}
	sb.WriteString(fmt.Sprintf("    %s [%s]\n", series, strings.Join(main, ", ")))
	if hasAlt {
		sb.WriteString(fmt.Sprintf("    %s [%s]\n", series, strings.Join(alt, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

func altColor(spec Spec) string {
	for _, p := range spec.Points {
		if p.Selected {
			return "#FFFFFF"
		}
		if p.Muted {
			return "#555555"
		}
	}
	return "#FF8F00"
}

func listRows(spec Spec) string {
	var sb strings.Builder
	sb.WriteString(spec.Title + "\n")
	for _, p := range spec.Points {
		marker := " "
		if p.Selected {
			marker = "*"
		}
		bar := strings.Repeat("█", max(1, p.Percent/5))
		sb.WriteString(fmt.Sprintf("%s %-6s %-20s %s\n", marker, p.Label, bar, format.K(p.Value)))
	}
	return sb.String()
}

func num(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
