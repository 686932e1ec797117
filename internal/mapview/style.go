package mapview

// Band is one step of the choropleth legend.
type Band struct {
	Min   int
	Color string
	Label string
}

// Bands are ordered highest threshold first; the first band with Min <= count wins.
var Bands = []Band{
	{100000, "#67000d", "> 100K"},
	{50000, "#a50f15", "50K – 100K"},
	{20000, "#cb181d", "20K – 50K"},
	{10000, "#ef3b2c", "10K – 20K"},
	{5000, "#fb6a4a", "5K – 10K"},
	{1000, "#fc9272", "1K – 5K"},
	{100, "#fcbba1", "100 – 1K"},
	{0, "#2a1a1a", "< 100"},
}

// Colors used outside the bands.
const (
	InactiveFill  = "#1a1a1a"
	BorderColor   = "rgba(255,255,255,0.15)"
	HighlightLine = "#FFD700"
)

// Style is the paint of one polygon.
type Style struct {
	FillColor   string  `json:"fill"`
	FillOpacity float64 `json:"fill-opacity"`
	Color       string  `json:"stroke"`
	Weight      float64 `json:"stroke-width"`
}

// ColorFor picks the band colour for count.
func ColorFor(count int) string {
	for _, b := range Bands {
		if count >= b.Min {
			return b.Color
		}
	}
	return Bands[len(Bands)-1].Color
}

// BaseStyle is the resting style of a zone.
func BaseStyle(count int, inFilter bool) Style {
	if !inFilter {
		return Style{FillColor: InactiveFill, FillOpacity: 0.08, Color: BorderColor, Weight: 0.7}
	}
	opacity := 0.2
	if count > 0 {
		opacity = 0.85
	}
	return Style{FillColor: ColorFor(count), FillOpacity: opacity, Color: BorderColor, Weight: 0.7}
}

// HoverStyle raises the border of a hovered zone.
func HoverStyle(base Style) Style {
	base.Weight = 2
	base.Color = HighlightLine
	base.FillOpacity = 0.95
	return base
}

// SelectedStyle marks the zone picked from search.
func SelectedStyle(base Style) Style {
	base.Weight = 3
	base.Color = HighlightLine
	base.FillOpacity = 0.95
	return base
}
