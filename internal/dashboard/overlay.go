package dashboard

import "sync"

// OverlayMode is what the full-screen overlay currently shows.
type OverlayMode string

const (
	OverlayHidden  OverlayMode = "hidden"
	OverlayLoading OverlayMode = "loading"
	OverlayError   OverlayMode = "error"
)

// Boot phases and their progress percentages.
var (
	PhaseStarting   = Phase{3, "Starting…"}
	PhaseConnecting = Phase{8, "Connecting…"}
	PhaseKPIs       = Phase{35, "Rendering KPIs…"}
	PhaseMap        = Phase{55, "Loading map…"}
	PhaseMapReady   = Phase{72, "Map ready ✓"}
	PhaseCharts     = Phase{85, "Rendering charts…"}
	PhaseHistogram  = Phase{95, "Building histogram…"}
	PhaseReady      = Phase{100, "Ready ✓"}
)

// Phase is one step of the progress indicator.
type Phase struct {
	Percent int
	Label   string
}

// OverlayState is a snapshot of the overlay and progress bar.
type OverlayState struct {
	Mode     OverlayMode `json:"mode"`
	Message  string      `json:"message,omitempty"`
	Retry    bool        `json:"retry"`
	Progress int         `json:"progress"`
	Phase    string      `json:"phase,omitempty"`
}

// Overlay drives the loading/error overlay and the phased progress bar.
type Overlay struct {
	mu       sync.Mutex
	state    OverlayState
	history  []Phase
	onChange func(OverlayState)
}

// NewOverlay creates a hidden overlay.
func NewOverlay() *Overlay {
	return &Overlay{state: OverlayState{Mode: OverlayHidden}}
}

// OnChange registers a listener called after every change.
func (o *Overlay) OnChange(fn func(OverlayState)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

func (o *Overlay) update(fn func(s *OverlayState)) {
	o.mu.Lock()
	fn(&o.state)
	snap := o.state
	hook := o.onChange
	o.mu.Unlock()
	if hook != nil {
		hook(snap)
	}
}

// ShowLoading shows the spinner with msg and resets progress.
func (o *Overlay) ShowLoading(msg string) {
	o.mu.Lock()
	o.history = o.history[:0]
	o.mu.Unlock()
	o.update(func(s *OverlayState) {
		*s = OverlayState{Mode: OverlayLoading, Message: msg}
	})
}

// ShowError replaces the spinner with msg and a retry action.
func (o *Overlay) ShowError(msg string) {
	o.update(func(s *OverlayState) {
		*s = OverlayState{Mode: OverlayError, Message: msg, Retry: true}
	})
}

// Hide removes the overlay; the progress bar keeps running underneath.
func (o *Overlay) Hide() {
	o.update(func(s *OverlayState) {
		s.Mode = OverlayHidden
		s.Message = ""
		s.Retry = false
	})
}

// Advance moves the progress bar to p.
func (o *Overlay) Advance(p Phase) {
	o.mu.Lock()
	o.history = append(o.history, p)
	o.mu.Unlock()
	o.update(func(s *OverlayState) {
		s.Progress = p.Percent
		s.Phase = p.Label
	})
}

// ClearProgress empties the progress bar.
func (o *Overlay) ClearProgress() {
	o.update(func(s *OverlayState) {
		s.Progress = 0
		s.Phase = ""
	})
}

// State returns the current snapshot.
func (o *Overlay) State() OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Phases returns the phases reached since the last ShowLoading.
func (o *Overlay) Phases() []Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Phase, len(o.history))
	copy(out, o.history)
	return out
}
