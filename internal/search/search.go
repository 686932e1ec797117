// Package search implements zone autocomplete over the immutable zone index.
package search

import (
	"fmt"
	"strings"
	"sync"

	"taxidash/internal/geo"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
)

// MaxSuggestions caps the dropdown.
const MaxSuggestions = 10

var markTmpl = template.Must(template.New("mark").Parse(`{{.Before}}<mark>{{.Match}}</mark>{{.After}}`))

// Span is a half-open byte range of a match.
type Span struct {
	Start, End int
}

// Suggestion is one autocomplete row.
type Suggestion struct {
	Zone         geo.Zone
	NameMatch    *Span
	BoroughMatch *Span
	// NameHTML and BoroughHTML are escaped with the match wrapped in <mark>.
	NameHTML    safehtml.HTML
	BoroughHTML safehtml.HTML
}

// Text renders the suggestion for terminals, brackets standing in for <mark>.
func (s Suggestion) Text() string {
	return bracket(s.Zone.Name, s.NameMatch) + " (" + bracket(s.Zone.Borough, s.BoroughMatch) + ")"
}

func bracket(s string, sp *Span) string {
	if sp == nil || sp.Start == sp.End {
		return s
	}
	return s[:sp.Start] + "[" + s[sp.Start:sp.End] + "]" + s[sp.End:]
}

// Highlighter is the map side of the search.
type Highlighter interface {
	Highlight(zoneID string) error
	ResetHighlight()
}

// Searcher keeps the current query, its suggestions and the keyboard cursor.
type Searcher struct {
	mu      sync.Mutex
	index   *geo.Index
	hl      Highlighter
	query   string
	results []Suggestion
	active  int
}

// New creates a searcher over idx that highlights through hl.
func New(idx *geo.Index, hl Highlighter) *Searcher {
	return &Searcher{index: idx, hl: hl, active: -1}
}

// Match returns up to limit zones whose name or borough contains q, case-insensitively, in index order.
func Match(idx *geo.Index, q string, limit int) ([]Suggestion, error) {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" || idx == nil {
		return nil, nil
	}

	var out []Suggestion
	for i := 0; i < idx.Len() && len(out) < limit; i++ {
		z := idx.At(i)
		nameSpan := find(z.Name, needle)
		boroSpan := find(z.Borough, needle)
		if nameSpan == nil && boroSpan == nil {
			continue
		}

		nameHTML, err := mark(z.Name, nameSpan)
		if err != nil {
			return nil, err
		}
		boroHTML, err := mark(z.Borough, boroSpan)
		if err != nil {
			return nil, err
		}
		out = append(out, Suggestion{
			Zone:         z,
			NameMatch:    nameSpan,
			BoroughMatch: boroSpan,
			NameHTML:     nameHTML,
			BoroughHTML:  boroHTML,
		})
	}
	return out, nil
}

func find(s, needle string) *Span {
	lower := strings.ToLower(s)
	idx := strings.Index(lower, needle)
	if idx < 0 {
		return nil
	}
	// Lowercasing can change byte lengths outside ASCII; only mark when offsets line up.
	if len(lower) != len(s) {
		return &Span{}
	}
	return &Span{Start: idx, End: idx + len(needle)}
}

func mark(s string, sp *Span) (safehtml.HTML, error) {
	if sp == nil || sp.Start == sp.End {
		return safehtml.HTMLEscaped(s), nil
	}
	h, err := markTmpl.ExecuteToHTML(struct {
		Before, Match, After string
	}{s[:sp.Start], s[sp.Start:sp.End], s[sp.End:]})
	if err != nil {
		return safehtml.HTML{}, fmt.Errorf("failed to mark %q: %w", s, err)
	}
	return h, nil
}

// Query updates the query. An empty query clears suggestions and resets map styling.
func (s *Searcher) Query(q string) ([]Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = q
	s.active = -1
	if strings.TrimSpace(q) == "" {
		s.results = nil
		s.hl.ResetHighlight()
		return nil, nil
	}

	res, err := Match(s.index, q, MaxSuggestions)
	if err != nil {
		return nil, err
	}
	s.results = res
	return res, nil
}

// Suggestions returns the current dropdown rows.
func (s *Searcher) Suggestions() []Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Suggestion, len(s.results))
	copy(out, s.results)
	return out
}

// Select highlights a zone and fits the map to it; the query becomes the zone name.
func (s *Searcher) Select(zoneID string) (geo.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(zoneID)
}

func (s *Searcher) selectLocked(zoneID string) (geo.Zone, error) {
	z, ok := s.index.Lookup(zoneID)
	if !ok {
		return geo.Zone{}, fmt.Errorf("unknown zone %q", zoneID)
	}
	if err := s.hl.Highlight(zoneID); err != nil {
		return geo.Zone{}, err
	}
	s.query = z.Name
	s.results = nil
	s.active = -1
	return z, nil
}

// SetText fills the search field without searching, as a map click does.
func (s *Searcher) SetText(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.results = nil
	s.active = -1
}

// Text returns the search field contents.
func (s *Searcher) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Clear empties the field, resets polygon styling and refits the full extent.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.results = nil
	s.active = -1
	s.hl.ResetHighlight()
}

// Next moves the keyboard cursor down and returns the active row, or -1.
func (s *Searcher) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return -1
	}
	if s.active < len(s.results)-1 {
		s.active++
	}
	return s.active
}

// Prev moves the keyboard cursor up; from no selection it wraps to the last row.
func (s *Searcher) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return -1
	}
	switch {
	case s.active < 0:
		s.active = len(s.results) - 1
	case s.active > 0:
		s.active--
	}
	return s.active
}

// Accept selects the active row, or the first row when none is active.
func (s *Searcher) Accept() (geo.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return geo.Zone{}, fmt.Errorf("no suggestions for %q", s.query)
	}
	i := s.active
	if i < 0 {
		i = 0
	}
	return s.selectLocked(s.results[i].Zone.ID)
}
