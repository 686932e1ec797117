package charts

import (
	"strings"
	"testing"

	"taxidash/internal/api"
	"taxidash/internal/filter"

	"github.com/google/go-cmp/cmp"
)

type recordingBackend struct {
	events []string
}

type recordingHandle struct {
	b    *recordingBackend
	slot string
}

func (h *recordingHandle) Destroy() { h.b.events = append(h.b.events, "destroy:"+h.slot) }

func (b *recordingBackend) Draw(slot string, spec Spec) (Handle, error) {
	b.events = append(b.events, "draw:"+slot)
	return &recordingHandle{b: b, slot: slot}, nil
}

func labels(s Spec) []string {
	out := make([]string, 0, len(s.Points))
	for _, p := range s.Points {
		out = append(out, p.Label)
	}
	return out
}

func TestRegistry_DestroysBeforeRedraw(t *testing.T) {
	b := &recordingBackend{}
	r := NewRegistry(b)
	st := filter.Defaults()

	rows := []api.FareBucket{{Range: "$0-10", Count: 5}}
	if err := RenderFare(r, rows, st); err != nil {
		t.Fatal(err)
	}
	if err := RenderFare(r, rows, st); err != nil {
		t.Fatal(err)
	}

	want := []string{"draw:fare-chart", "destroy:fare-chart", "draw:fare-chart"}
	if diff := cmp.Diff(want, b.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if r.Live() != 1 {
		t.Errorf("live handles = %d, want 1", r.Live())
	}
}

func TestRenderTrends_Chronological(t *testing.T) {
	r := NewRegistry(NewMermaidBackend())
	rows := []api.TrendPoint{{Date: "2019-01-03", Trips: 3}, {Date: "2019-01-01", Trips: 1}, {Date: "2019-01-02", Trips: 2}}
	if err := RenderTrends(r, rows, filter.Defaults()); err != nil {
		t.Fatal(err)
	}
	spec, _ := r.Spec(SlotTrends)
	if diff := cmp.Diff([]string{"Jan 1", "Jan 2", "Jan 3"}, labels(spec)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if spec.Period != "Jan 1–31, 2019" {
		t.Errorf("period = %q", spec.Period)
	}
	if rows[0].Date != "2019-01-03" {
		t.Error("input slice must not be reordered")
	}
}

func TestRenderBorough_SortsAndMutes(t *testing.T) {
	r := NewRegistry(NewMermaidBackend())
	rows := []api.BoroughCount{
		{Borough: "Queens", TripCount: 300},
		{Borough: "Unknown", TripCount: 1000},
		{Borough: "Manhattan", TripCount: 9000},
		{Borough: "EWR", TripCount: 50},
		{Borough: "Brooklyn", TripCount: 700},
	}
	st := filter.Defaults()
	st.Boroughs = filter.NewBoroughSet(filter.Manhattan, filter.Queens)

	if err := RenderBorough(r, rows, st); err != nil {
		t.Fatal(err)
	}
	spec, _ := r.Spec(SlotBorough)
	if diff := cmp.Diff([]string{"Manhattan", "Brooklyn", "Queens"}, labels(spec)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if spec.Points[0].Muted || !spec.Points[1].Muted || spec.Points[2].Muted {
		t.Errorf("muting wrong: %+v", spec.Points)
	}
	if spec.Points[1].Color != MutedBorough {
		t.Errorf("muted color = %s", spec.Points[1].Color)
	}
}

func TestRenderFare_BucketOrderAndMuting(t *testing.T) {
	r := NewRegistry(NewMermaidBackend())
	rows := []api.FareBucket{
		{Range: "$50+", Count: 1}, {Range: "$10-20", Count: 40}, {Range: "$0-10", Count: 50},
		{Range: "$30-40", Count: 5}, {Range: "$20-30", Count: 20}, {Range: "$40-50", Count: 2},
	}
	st := filter.Defaults()
	st.MinFare, st.MaxFare = 10, 30

	if err := RenderFare(r, rows, st); err != nil {
		t.Fatal(err)
	}
	spec, _ := r.Spec(SlotFare)
	if diff := cmp.Diff(FareBuckets, labels(spec)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	var muted []bool
	for _, p := range spec.Points {
		muted = append(muted, p.Muted)
	}
	if diff := cmp.Diff([]bool{true, false, false, true, true, true}, muted); diff != "" {
		t.Errorf("muted mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderPeakHours_TopFive(t *testing.T) {
	r := NewRegistry(NewMermaidBackend())
	rows := []api.PeakHour{
		{Hour: 18, Label: "6 PM", TripCount: 1000},
		{Hour: 19, Label: "7 PM", TripCount: 500},
		{Hour: 17, TripCount: 250},
		{Hour: 20, TripCount: 200},
		{Hour: 8, TripCount: 100},
		{Hour: 9, TripCount: 50},
	}
	st := filter.Defaults()
	h := 19
	st.Hour = &h

	if err := RenderPeakHours(r, rows, st); err != nil {
		t.Fatal(err)
	}
	spec, _ := r.Spec(SlotPeakHours)
	if len(spec.Points) != 5 {
		t.Fatalf("points = %d, want 5", len(spec.Points))
	}
	if spec.Points[1].Percent != 50 || !spec.Points[1].Selected {
		t.Errorf("second row = %+v", spec.Points[1])
	}
	if spec.Points[2].Label != "5 PM" {
		t.Errorf("missing label fallback: %q", spec.Points[2].Label)
	}
}

func TestRenderHistogram(t *testing.T) {
	b := NewMermaidBackend()
	r := NewRegistry(b)
	st := filter.Defaults()
	h := 8
	st.Hour = &h

	rows := []api.HourCount{{Hour: 8, TripCount: 1000}, {Hour: 3, TripCount: 10}}
	if err := RenderHistogram(r, rows, st); err != nil {
		t.Fatal(err)
	}
	spec, _ := r.Spec(SlotHistogram)
	if len(spec.Points) != 24 {
		t.Fatalf("points = %d", len(spec.Points))
	}
	if p := spec.Points[3]; p.Percent != 4 {
		t.Errorf("small bar percent = %d, want floor 4", p.Percent)
	}
	if p := spec.Points[8]; !p.Selected || !p.Peak || p.Percent != 100 {
		t.Errorf("hour 8 = %+v", p)
	}
	out, ok := b.Rendered(SlotHistogram)
	if !ok || !strings.Contains(out, "xychart-beta") {
		t.Errorf("mermaid output missing: %q", out)
	}
}

func TestMermaidBackend_RejectsBusySlot(t *testing.T) {
	b := NewMermaidBackend()
	spec := Spec{Kind: Bar, Points: []Point{{Label: "a", Value: 1}}}
	h, err := b.Draw("x", spec)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Draw("x", spec); err == nil {
		t.Error("drawing over a live slot must fail")
	}
	h.Destroy()
	if _, err := b.Draw("x", spec); err != nil {
		t.Errorf("draw after destroy: %v", err)
	}
	if _, err := b.Draw("y", Spec{Kind: "pie"}); err == nil {
		t.Error("unknown kind must fail")
	}
}
