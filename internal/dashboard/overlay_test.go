package dashboard

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestOverlay_Lifecycle(t *testing.T) {
	o := NewOverlay()
	var changes int
	o.OnChange(func(OverlayState) { changes++ })

	o.ShowLoading("Connecting to API…")
	o.Advance(PhaseConnecting)
	if s := o.State(); s.Mode != OverlayLoading || s.Progress != 8 || s.Phase != PhaseConnecting.Label {
		t.Errorf("unexpected loading state %+v", s)
	}

	o.Hide()
	o.Advance(PhaseReady)
	if s := o.State(); s.Mode != OverlayHidden || s.Progress != 100 {
		t.Errorf("progress should keep running under a hidden overlay, got %+v", s)
	}

	o.ShowError("Could not connect to the API server.")
	if s := o.State(); !s.Retry || s.Progress != 0 {
		t.Errorf("expected retry affordance and reset progress, got %+v", s)
	}
	if changes != 5 {
		t.Errorf("expected 5 change notifications, got %d", changes)
	}

	o.ShowLoading("again")
	if len(o.Phases()) != 0 {
		t.Error("ShowLoading should reset the phase history")
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(40*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly one call, got %d", n)
	}
	if d.Pending() {
		t.Error("nothing should be pending after the call")
	}
}

func TestDebouncer_CancelAndFlush(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(time.Hour, func() { calls.Add(1) })

	d.Trigger()
	if !d.Cancel() {
		t.Error("Cancel should report the pending call")
	}
	if d.Cancel() {
		t.Error("second Cancel should report nothing pending")
	}

	d.Trigger()
	d.Flush()
	if n := calls.Load(); n != 1 {
		t.Errorf("Flush should run the pending call once, got %d", n)
	}
	d.Flush()
	if n := calls.Load(); n != 1 {
		t.Errorf("Flush without a pending call must not run, got %d", n)
	}
}

func TestDebouncer_FlushWaitsForFiredCall(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	d := NewDebouncer(time.Millisecond, func() {
		close(started)
		<-unblock
	})

	d.Trigger()
	<-started
	if d.Pending() {
		t.Fatal("a fired call is no longer pending")
	}

	flushed := make(chan struct{})
	go func() {
		d.Flush()
		close(flushed)
	}()
	select {
	case <-flushed:
		t.Fatal("Flush returned while the fired call was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(unblock)
	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("Flush did not return after the call finished")
	}
}
