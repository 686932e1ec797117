package filter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrHourOutOfRange is returned for hours outside 0..23.
var ErrHourOutOfRange = errors.New("hour must be between 0 and 23")

// CommitFunc is notified after a committed change. immediate is true for
// explicit actions (clicks, clears) and false for slider releases.
type CommitFunc func(immediate bool)

// Store owns the mutable filter state.
type Store struct {
	mu      sync.Mutex
	state   State
	pending bool
	commit  CommitFunc
}

// NewStore creates a store holding the default state.
func NewStore() *Store {
	return &Store{state: Defaults()}
}

// OnCommit registers the refresh hook.
func (s *Store) OnCommit(fn CommitFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit = fn
}

// State returns a copy of the current filter state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Pending reports whether a dragged range has not been committed yet.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Store) mutate(immediate bool, fn func(st *State) bool) bool {
	s.mu.Lock()
	changed := fn(&s.state)
	if changed {
		s.pending = false
	}
	hook := s.commit
	s.mu.Unlock()

	if changed && hook != nil {
		hook(immediate)
	}
	return changed
}

// ToggleBorough adds or removes b. Removing the last selected borough is a no-op.
func (s *Store) ToggleBorough(b Borough) bool {
	return s.mutate(true, func(st *State) bool {
		if bit(b) == 0 {
			return false
		}
		if st.Boroughs.Has(b) {
			if st.Boroughs.Len() == 1 {
				log.Debug().Str("borough", string(b)).Msg("Keeping last selected borough")
				return false
			}
			st.Boroughs = st.Boroughs.without(b)
			return true
		}
		st.Boroughs = st.Boroughs.with(b)
		return true
	})
}

// SetBoroughs replaces the selection. An empty selection is rejected.
func (s *Store) SetBoroughs(bs ...Borough) error {
	set := NewBoroughSet(bs...)
	if set.Len() == 0 {
		return fmt.Errorf("at least one borough must be selected")
	}
	s.mutate(true, func(st *State) bool {
		if st.Boroughs == set {
			return false
		}
		st.Boroughs = set
		return true
	})
	return nil
}

// DragFareRange updates the fare range while a slider thumb moves. It does not commit.
func (s *Store) DragFareRange(lo, hi float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MinFare, s.state.MaxFare = normalizeRange(lo, hi, FareMin, FareMax, FareStep)
	s.pending = true
}

// DragDistanceRange is DragFareRange for the distance slider.
func (s *Store) DragDistanceRange(lo, hi float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MinDistance, s.state.MaxDistance = normalizeRange(lo, hi, DistanceMin, DistanceMax, DistanceStep)
	s.pending = true
}

// Commit releases a dragged slider and schedules a debounced refresh.
func (s *Store) Commit() {
	s.mu.Lock()
	wasPending := s.pending
	s.pending = false
	hook := s.commit
	s.mu.Unlock()

	if wasPending && hook != nil {
		hook(false)
	}
}

// SetFareRange commits a fare range through the debounced path.
func (s *Store) SetFareRange(lo, hi float64) bool {
	lo, hi = normalizeRange(lo, hi, FareMin, FareMax, FareStep)
	return s.mutate(false, func(st *State) bool {
		if st.MinFare == lo && st.MaxFare == hi {
			return false
		}
		st.MinFare, st.MaxFare = lo, hi
		return true
	})
}

// SetDistanceRange commits a distance range through the debounced path.
func (s *Store) SetDistanceRange(lo, hi float64) bool {
	lo, hi = normalizeRange(lo, hi, DistanceMin, DistanceMax, DistanceStep)
	return s.mutate(false, func(st *State) bool {
		if st.MinDistance == lo && st.MaxDistance == hi {
			return false
		}
		st.MinDistance, st.MaxDistance = lo, hi
		return true
	})
}

// SetDate selects a single day of the dataset month.
func (s *Store) SetDate(iso string) error {
	if err := ValidateDate(iso); err != nil {
		return err
	}
	s.mutate(true, func(st *State) bool {
		if st.Date != nil && *st.Date == iso {
			return false
		}
		st.Date = &iso
		return true
	})
	return nil
}

// ClearDate removes the date filter.
func (s *Store) ClearDate() bool {
	return s.mutate(true, func(st *State) bool {
		if st.Date == nil {
			return false
		}
		st.Date = nil
		return true
	})
}

// SetHour selects hour h; selecting the already selected hour clears it.
func (s *Store) SetHour(h int) error {
	if h < 0 || h > 23 {
		return ErrHourOutOfRange
	}
	s.mutate(true, func(st *State) bool {
		if st.Hour != nil && *st.Hour == h {
			st.Hour = nil
			return true
		}
		st.Hour = &h
		return true
	})
	return nil
}

// ClearHour removes the hour filter.
func (s *Store) ClearHour() bool {
	return s.mutate(true, func(st *State) bool {
		if st.Hour == nil {
			return false
		}
		st.Hour = nil
		return true
	})
}

// Restore puts every default back without notifying; a full reload follows it.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Defaults()
	s.pending = false
}

// Reset restores every default.
func (s *Store) Reset() bool {
	return s.mutate(true, func(st *State) bool {
		if st.IsDefault() {
			return false
		}
		*st = Defaults()
		return true
	})
}
