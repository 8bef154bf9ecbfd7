package terminal

import (
	"testing"
	"time"
)

func TestSignalPreferenceDefaultsEnabled(t *testing.T) {
	feedback, _, prefs := newTestFeedback()

	if !feedback.Enabled() {
		t.Error("Signal preference should default to enabled when never set")
	}

	feedback.SetEnabled(false)
	if feedback.Enabled() {
		t.Error("Signal preference should reflect the saved value")
	}

	// A fresh subsystem over the same store sees the persisted value
	again := NewFeedback(&fakeSignaler{}, prefs)
	if again.Enabled() {
		t.Error("Persisted preference should survive re-entry")
	}

	feedback.SetEnabled(true)
	if !feedback.Enabled() {
		t.Error("Re-enabling should be persisted")
	}
}

func TestAudioUnlockHappensOnce(t *testing.T) {
	feedback, signaler, _ := newTestFeedback()

	feedback.UnlockAudio()
	feedback.UnlockAudio()
	feedback.SetEnabled(true) // also a qualifying gesture

	if signaler.unlocks != 1 {
		t.Errorf("Expected exactly one unlock, got %d", signaler.unlocks)
	}
}

func TestToastSupersedesPrevious(t *testing.T) {
	feedback, _, _ := newTestFeedback()
	feedback.ToastDelay = 40 * time.Millisecond

	feedback.ShowToast(ToastError, "first")
	time.Sleep(25 * time.Millisecond)
	feedback.ShowToast(ToastSuccess, "second")

	// The first toast's expiry would have fired by now; the second
	// replaced it and restarted the clock.
	time.Sleep(25 * time.Millisecond)
	toast := feedback.Toast()
	if toast == nil || toast.Message != "second" {
		t.Fatalf("Second toast should still be visible, got %+v", toast)
	}

	time.Sleep(30 * time.Millisecond)
	if feedback.Toast() != nil {
		t.Error("Toast should auto-clear after its delay")
	}
}

func TestHighlightSupersedesPrevious(t *testing.T) {
	feedback, _, _ := newTestFeedback()
	feedback.HighlightDelay = 40 * time.Millisecond

	feedback.Pulse(1)
	time.Sleep(25 * time.Millisecond)
	feedback.Pulse(2)

	time.Sleep(25 * time.Millisecond)
	if got := feedback.Highlighted(); got != 2 {
		t.Fatalf("Expected line 2 highlighted, got %d", got)
	}

	time.Sleep(30 * time.Millisecond)
	if got := feedback.Highlighted(); got != 0 {
		t.Errorf("Highlight should auto-clear, got %d", got)
	}
}

func TestDisabledSignalsSkipTones(t *testing.T) {
	feedback, signaler, _ := newTestFeedback()
	feedback.SetEnabled(false)

	feedback.Success("ok")
	feedback.Error("bad")

	if signaler.successes != 0 || signaler.errors != 0 || signaler.vibes != 0 {
		t.Error("Disabled preference should suppress tones and vibration")
	}
	if feedback.Toast() == nil {
		t.Error("Toasts are shown regardless of the signal preference")
	}
}

// A toast shown right as its predecessor expires must survive its own
// display window; the fired expiry of the predecessor may not clear it.
func TestToastSurvivesExpiryBoundarySupersede(t *testing.T) {
	feedback, _, _ := newTestFeedback()
	feedback.ToastDelay = 2 * time.Millisecond

	for i := 0; i < 100; i++ {
		feedback.ShowToast(ToastError, "old")
		time.Sleep(feedback.ToastDelay)
		feedback.ShowToast(ToastSuccess, "new")
		time.Sleep(feedback.ToastDelay / 2)
		if toast := feedback.Toast(); toast == nil || toast.Message != "new" {
			t.Fatalf("Iteration %d: superseding toast cleared early: %+v", i, toast)
		}
	}
}

func TestHighlightSurvivesExpiryBoundarySupersede(t *testing.T) {
	feedback, _, _ := newTestFeedback()
	feedback.HighlightDelay = 2 * time.Millisecond

	for i := 0; i < 100; i++ {
		feedback.Pulse(101)
		time.Sleep(feedback.HighlightDelay)
		feedback.Pulse(102)
		time.Sleep(feedback.HighlightDelay / 2)
		if got := feedback.Highlighted(); got != 102 {
			t.Fatalf("Iteration %d: superseding highlight cleared early, got %d", i, got)
		}
	}
}
