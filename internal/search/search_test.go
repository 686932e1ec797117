package search

import (
	"fmt"
	"testing"

	"taxidash/internal/geo"

	"github.com/google/go-cmp/cmp"
)

type fakeMap struct {
	highlighted []string
	resets      int
}

func (f *fakeMap) Highlight(zoneID string) error {
	f.highlighted = append(f.highlighted, zoneID)
	return nil
}

func (f *fakeMap) ResetHighlight() { f.resets++ }

func testIndex(zones ...geo.Zone) *geo.Index {
	fc := &geo.FeatureCollection{Type: "FeatureCollection"}
	for _, z := range zones {
		fc.Features = append(fc.Features, geo.Feature{
			Type:       "Feature",
			Properties: geo.Properties{LocationID: geo.ZoneID(z.ID), Zone: z.Name, Borough: z.Borough},
		})
	}
	return geo.NewIndex(fc)
}

func TestSearch_Harlem(t *testing.T) {
	idx := testIndex(
		geo.Zone{ID: "74", Name: "Central Harlem", Borough: "Manhattan"},
		geo.Zone{ID: "61", Name: "Crown Heights North", Borough: "Brooklyn"},
	)
	fm := &fakeMap{}
	s := New(idx, fm)

	got, err := s.Query("Harlem")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(got))
	}
	if got[0].Zone.ID != "74" {
		t.Errorf("suggestion zone = %+v", got[0].Zone)
	}
	if want := "Central <mark>Harlem</mark>"; got[0].NameHTML.String() != want {
		t.Errorf("NameHTML = %q, want %q", got[0].NameHTML.String(), want)
	}
	if got[0].BoroughMatch != nil {
		t.Errorf("borough should not be marked")
	}
	if text := got[0].Text(); text != "Central [Harlem] (Manhattan)" {
		t.Errorf("Text() = %q", text)
	}

	z, err := s.Select(got[0].Zone.ID)
	if err != nil {
		t.Fatal(err)
	}
	if z.Name != "Central Harlem" || s.Text() != "Central Harlem" {
		t.Errorf("selected %+v, field %q", z, s.Text())
	}
	if diff := cmp.Diff([]string{"74"}, fm.highlighted); diff != "" {
		t.Errorf("highlighted mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_CaseInsensitiveBoroughMatch(t *testing.T) {
	idx := testIndex(
		geo.Zone{ID: "1", Name: "Astoria", Borough: "Queens"},
		geo.Zone{ID: "2", Name: "Queensbridge/Ravenswood", Borough: "Queens"},
		geo.Zone{ID: "3", Name: "Midtown", Borough: "Manhattan"},
	)
	got, err := Match(idx, "  QUEENS ", MaxSuggestions)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, s := range got {
		ids = append(ids, s.Zone.ID)
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
	if got[0].BoroughHTML.String() != "<mark>Queens</mark>" {
		t.Errorf("BoroughHTML = %q", got[0].BoroughHTML.String())
	}
}

func TestSearch_LimitAndEscaping(t *testing.T) {
	var zones []geo.Zone
	for i := 0; i < 25; i++ {
		zones = append(zones, geo.Zone{ID: fmt.Sprint(i), Name: fmt.Sprintf("Park <%d>", i), Borough: "Bronx"})
	}
	got, err := Match(testIndex(zones...), "park", MaxSuggestions)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxSuggestions {
		t.Fatalf("got %d suggestions, want %d", len(got), MaxSuggestions)
	}
	if got[0].Zone.ID != "0" || got[9].Zone.ID != "9" {
		t.Errorf("suggestions not in index order")
	}
	if want := "<mark>Park</mark> &lt;0&gt;"; got[0].NameHTML.String() != want {
		t.Errorf("NameHTML = %q, want %q", got[0].NameHTML.String(), want)
	}
}

func TestSearch_EmptyQueryResets(t *testing.T) {
	fm := &fakeMap{}
	s := New(testIndex(geo.Zone{ID: "1", Name: "Astoria", Borough: "Queens"}), fm)
	got, err := s.Query("   ")
	if err != nil || got != nil {
		t.Fatalf("Query(blank) = %v, %v", got, err)
	}
	if fm.resets != 1 {
		t.Errorf("resets = %d, want 1", fm.resets)
	}
	s.Clear()
	if fm.resets != 2 {
		t.Errorf("Clear must reset the map")
	}
}

func TestSearch_KeyboardNavigation(t *testing.T) {
	fm := &fakeMap{}
	s := New(testIndex(
		geo.Zone{ID: "1", Name: "Astoria", Borough: "Queens"},
		geo.Zone{ID: "2", Name: "Astoria Park", Borough: "Queens"},
	), fm)

	if _, err := s.Accept(); err == nil {
		t.Error("Accept without suggestions must fail")
	}
	if _, err := s.Query("astoria"); err != nil {
		t.Fatal(err)
	}
	if got := s.Prev(); got != 1 {
		t.Errorf("Prev from none = %d, want 1", got)
	}
	if got := s.Prev(); got != 0 {
		t.Errorf("Prev = %d, want 0", got)
	}
	if got := s.Next(); got != 1 {
		t.Errorf("Next = %d, want 1", got)
	}
	if got := s.Next(); got != 1 {
		t.Errorf("Next at end = %d, want 1", got)
	}
	z, err := s.Accept()
	if err != nil || z.ID != "2" {
		t.Errorf("Accept = %+v, %v", z, err)
	}
}
