package terminal

import (
	"sync"
	"time"
)

const signalPrefKey = "scanner_signal_enabled"

// Toast kinds
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Default transient display durations
const (
	DefaultToastDelay     = 3 * time.Second
	DefaultHighlightDelay = 1500 * time.Millisecond
)

// Toast is a transient operator message
type Toast struct {
	Kind    string
	Message string
}

// Signaler produces audible and haptic confirmation on the device
type Signaler interface {
	SuccessTone()
	ErrorTone()
	Vibrate(d time.Duration)
	// Unlock satisfies platform autoplay restrictions; it is called once,
	// on the first qualifying user gesture.
	Unlock()
}

// PrefStore persists small device-local preferences
type PrefStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Feedback drives toasts, highlight pulses and success/error signals.
// Toast and highlight expiry are single-slot: starting a new one cancels
// any pending clear of the previous one.
type Feedback struct {
	signaler Signaler
	prefs    PrefStore

	ToastDelay     time.Duration
	HighlightDelay time.Duration

	mu             sync.Mutex
	unlocked       bool
	toast          *Toast
	toastGen       uint64
	toastTimer     *time.Timer
	highlight      int64
	highlightGen   uint64
	highlightTimer *time.Timer
}

// NewFeedback creates the feedback subsystem
func NewFeedback(signaler Signaler, prefs PrefStore) *Feedback {
	return &Feedback{
		signaler:       signaler,
		prefs:          prefs,
		ToastDelay:     DefaultToastDelay,
		HighlightDelay: DefaultHighlightDelay,
	}
}

// Enabled reads the persisted signal preference; never-set means enabled
func (f *Feedback) Enabled() bool {
	value, ok := f.prefs.Get(signalPrefKey)
	if !ok {
		return true
	}
	return value == "1"
}

// SetEnabled persists the signal preference. Toggling counts as a user
// gesture, so it also unlocks audio.
func (f *Feedback) SetEnabled(enabled bool) {
	value := "0"
	if enabled {
		value = "1"
	}
	f.prefs.Set(signalPrefKey, value)
	f.UnlockAudio()
}

// UnlockAudio performs the one-shot platform audio unlock
func (f *Feedback) UnlockAudio() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unlocked {
		return
	}
	f.unlocked = true
	f.signaler.Unlock()
}

// Success emits the success signal and shows a toast
func (f *Feedback) Success(message string) {
	if f.Enabled() {
		f.signaler.SuccessTone()
		f.signaler.Vibrate(50 * time.Millisecond)
	}
	f.ShowToast(ToastSuccess, message)
}

// Error emits the error signal and shows a toast
func (f *Feedback) Error(message string) {
	if f.Enabled() {
		f.signaler.ErrorTone()
		f.signaler.Vibrate(200 * time.Millisecond)
	}
	f.ShowToast(ToastError, message)
}

// ShowToast replaces the current toast and restarts its expiry.
// Stop cannot cancel a timer whose callback has already fired and is
// waiting on the mutex, so each toast carries a generation and the
// callback only clears its own generation.
func (f *Feedback) ShowToast(kind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.toastTimer != nil {
		f.toastTimer.Stop()
	}
	f.toastGen++
	gen := f.toastGen
	f.toast = &Toast{Kind: kind, Message: message}
	f.toastTimer = time.AfterFunc(f.ToastDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.toastGen != gen {
			return
		}
		f.toast = nil
	})
}

// Toast returns the currently visible toast, if any
func (f *Feedback) Toast() *Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toast
}

// Pulse highlights one order line, replacing any previous highlight
func (f *Feedback) Pulse(lineID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.highlightTimer != nil {
		f.highlightTimer.Stop()
	}
	f.highlightGen++
	gen := f.highlightGen
	f.highlight = lineID
	f.highlightTimer = time.AfterFunc(f.HighlightDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.highlightGen != gen {
			return
		}
		f.highlight = 0
	})
}

// Highlighted returns the id of the currently highlighted line, 0 for none
func (f *Feedback) Highlighted() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.highlight
}
