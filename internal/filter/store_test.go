package filter

import "testing"

type commitRecorder struct {
	calls []bool
}

func (r *commitRecorder) hook(immediate bool) { r.calls = append(r.calls, immediate) }

func TestStore_ToggleLastBoroughIsNoop(t *testing.T) {
	s := NewStore()
	rec := &commitRecorder{}
	s.OnCommit(rec.hook)

	for _, b := range AllBoroughs[1:] {
		if !s.ToggleBorough(b) {
			t.Fatalf("ToggleBorough(%s) should remove it", b)
		}
	}
	if got := s.State().Boroughs.List(); len(got) != 1 || got[0] != Manhattan {
		t.Fatalf("expected only Manhattan, got %v", got)
	}

	if s.ToggleBorough(Manhattan) {
		t.Errorf("toggling the last borough must be a no-op")
	}
	if n := s.State().Boroughs.Len(); n != 1 {
		t.Errorf("selection count = %d, want 1", n)
	}
	if len(rec.calls) != 4 {
		t.Errorf("commit hook calls = %d, want 4", len(rec.calls))
	}
	for _, immediate := range rec.calls {
		if !immediate {
			t.Errorf("borough toggles must commit immediately")
		}
	}
}

func TestStore_SetBoroughsRejectsEmpty(t *testing.T) {
	s := NewStore()
	if err := s.SetBoroughs(); err == nil {
		t.Error("expected error for empty selection")
	}
	if err := s.SetBoroughs(Borough("Atlantis")); err == nil {
		t.Error("expected error for unknown-only selection")
	}
	if s.State().Boroughs != FullBoroughSet {
		t.Error("selection must be unchanged after rejected update")
	}
}

func TestStore_DragDoesNotCommit(t *testing.T) {
	s := NewStore()
	rec := &commitRecorder{}
	s.OnCommit(rec.hook)

	s.DragFareRange(10, 100)
	s.DragFareRange(12, 90)
	if !s.Pending() {
		t.Fatal("drag must mark the store pending")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("drag must not commit, got %d calls", len(rec.calls))
	}
	st := s.State()
	if st.MinFare != 12 || st.MaxFare != 90 {
		t.Errorf("fare range = %v..%v, want 12..90", st.MinFare, st.MaxFare)
	}

	s.Commit()
	if s.Pending() {
		t.Error("commit must clear pending")
	}
	if len(rec.calls) != 1 || rec.calls[0] {
		t.Errorf("commit must notify once with immediate=false, got %v", rec.calls)
	}

	s.Commit()
	if len(rec.calls) != 1 {
		t.Errorf("commit without pending drag must not notify")
	}
}

func TestStore_HourToggles(t *testing.T) {
	s := NewStore()
	if err := s.SetHour(8); err != nil {
		t.Fatal(err)
	}
	if h := s.State().Hour; h == nil || *h != 8 {
		t.Fatalf("hour = %v, want 8", h)
	}
	if err := s.SetHour(8); err != nil {
		t.Fatal(err)
	}
	if h := s.State().Hour; h != nil {
		t.Errorf("selecting the same hour must clear it, got %d", *h)
	}
	if err := s.SetHour(24); err != ErrHourOutOfRange {
		t.Errorf("SetHour(24) err = %v", err)
	}
}

func TestStore_StateIsACopy(t *testing.T) {
	s := NewStore()
	_ = s.SetDate("2019-01-10")
	st := s.State()
	*st.Date = "2019-01-20"
	if got := *s.State().Date; got != "2019-01-10" {
		t.Errorf("store mutated through copy: %s", got)
	}
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	s.SetFareRange(10, 20)
	_ = s.SetHour(3)
	if !s.Reset() {
		t.Fatal("Reset should report a change")
	}
	if !s.State().IsDefault() {
		t.Errorf("state not default after reset: %q", s.State().Encode())
	}
	if s.Reset() {
		t.Error("Reset on defaults should be a no-op")
	}
}
