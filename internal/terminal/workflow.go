package terminal

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// Draft slots a scan step can fill
type ScanSlot int

const (
	SlotSource ScanSlot = iota
	SlotItem
	SlotDestination
)

// Step kinds
type StepKind int

const (
	StepScan StepKind = iota
	StepQty
	StepConfirm
)

// StepSpec describes one step of a linear workflow
type StepSpec struct {
	Kind StepKind
	Want string   // expected entity type, for scan steps
	Slot ScanSlot // draft slot a successful scan fills
}

// Draft is the per-mode mutable accumulator
type Draft struct {
	StepIndex   int
	Source      *models.StockLocation
	Item        *models.Product
	Destination *models.StockLocation
	Qty         string
	Loading     bool
	Err         string
	Done        bool
}

// SubmitFunc builds and sends the mode's payload. qty is already validated.
type SubmitFunc func(ctx context.Context, d *Draft, qty float64, opID string) error

// ModeSpec is the configuration value that turns the generic engine
// into one concrete operation mode
type ModeSpec struct {
	Name         string
	OpPrefix     string
	Steps        []StepSpec
	AllowZeroQty bool // count mode records zero quantities
	Submit       SubmitFunc
}

// Workflow drives the scan→item→quantity→(destination)→confirm sequence
// of one mode. A single draft exists per workflow; Reset discards it.
type Workflow struct {
	spec     ModeSpec
	client   *Client
	feedback *Feedback

	mu    sync.Mutex
	draft Draft
	epoch uint64
}

// NewWorkflow creates a workflow from a mode configuration
func NewWorkflow(spec ModeSpec, client *Client, feedback *Feedback) *Workflow {
	return &Workflow{spec: spec, client: client, feedback: feedback}
}

// Draft returns a snapshot of the current draft
func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Step returns the current step specification
func (w *Workflow) Step() StepSpec {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spec.Steps[w.draft.StepIndex]
}

// HandleScan feeds one decoded code into the workflow. Blank input is a
// no-op. A resolver miss or type mismatch reports inline and leaves the
// draft and step index unchanged. Scans are deliberately not gated by an
// in-flight submission.
func (w *Workflow) HandleScan(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	w.mu.Lock()
	step := w.spec.Steps[w.draft.StepIndex]
	epoch := w.epoch
	w.mu.Unlock()

	if step.Kind != StepScan {
		// Scanning outside a scan step is ignored, not an error
		return nil
	}

	result, err := w.client.ResolveScan(ctx, code)
	if err != nil {
		w.fail(epoch, err.Error())
		return err
	}

	if result.Type != step.Want {
		err := ErrNotAnItem
		if step.Want == TypeLocation {
			err = ErrNotABin
		}
		w.fail(epoch, err.Error())
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		// Mode was reset while the lookup was in flight
		return nil
	}

	switch step.Slot {
	case SlotSource:
		w.draft.Source = result.Location
	case SlotItem:
		w.draft.Item = result.Item
	case SlotDestination:
		w.draft.Destination = result.Location
	}
	w.draft.StepIndex++
	w.draft.Err = ""
	w.feedback.Success(scanCaption(result))
	return nil
}

// HandleManualCode is HandleScan for typed-in codes; the keyboard entry
// is a user gesture, so it also unlocks audio.
func (w *Workflow) HandleManualCode(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	w.feedback.UnlockAudio()
	return w.HandleScan(ctx, code)
}

// SetQty stores the free-text quantity entry; it is validated at confirm
func (w *Workflow) SetQty(raw string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Qty = raw
}

// Next advances past the quantity step on explicit user action
func (w *Workflow) Next() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spec.Steps[w.draft.StepIndex].Kind == StepQty {
		w.draft.StepIndex++
		w.draft.Err = ""
	}
}

// Confirm validates the draft and submits it. A second confirm while the
// first is in flight is rejected.
func (w *Workflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	if w.spec.Steps[w.draft.StepIndex].Kind != StepConfirm || w.draft.Done {
		w.mu.Unlock()
		return nil
	}
	if w.draft.Loading {
		w.mu.Unlock()
		return ErrBusy
	}

	qty, vErr := parseQty(w.draft.Qty, w.spec.AllowZeroQty)
	if vErr != nil {
		w.draft.Err = vErr.Error()
		w.mu.Unlock()
		return vErr
	}

	w.draft.Loading = true
	w.draft.Err = ""
	epoch := w.epoch
	draft := w.draft
	w.mu.Unlock()

	opID := NewOpID(w.spec.OpPrefix)
	err := w.spec.Submit(ctx, &draft, qty, opID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		// The mode was reset while the request was in flight; the
		// response must not land on a draft that no longer exists.
		return nil
	}
	w.draft.Loading = false
	if err != nil {
		w.draft.Err = err.Error()
		w.feedback.Error(err.Error())
		return err
	}
	w.draft.Done = true
	w.feedback.Success(w.spec.Name + " saved")
	return nil
}

// NextItem prepares the draft for another item against the same source:
// item, quantity, destination and step reset, the source scan survives.
func (w *Workflow) NextItem() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.draft.Done {
		return
	}
	source := w.draft.Source
	w.draft = Draft{Source: source}
	if source != nil && w.spec.Steps[0].Kind == StepScan && w.spec.Steps[0].Slot == SlotSource {
		w.draft.StepIndex = 1
	}
}

// Reset discards the draft entirely and invalidates in-flight responses
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = Draft{}
	w.epoch++
}

// fail records an inline error unless the draft was reset meanwhile
func (w *Workflow) fail(epoch uint64, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return
	}
	w.draft.Err = message
	w.feedback.Error(message)
}

// parseQty validates the free-text quantity entry
func parseQty(raw string, allowZero bool) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "qty", Reason: "quantity is required"}
	}
	qty, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0, &ValidationError{Field: "qty", Reason: "quantity must be a number"}
	}
	if qty < 0 || (!allowZero && qty == 0) {
		return 0, &ValidationError{Field: "qty", Reason: "quantity must be positive"}
	}
	return qty, nil
}

// scanCaption is the toast text for a successful scan
func scanCaption(r *ScanResult) string {
	switch r.Type {
	case TypeItem:
		return r.Item.Name
	case TypeLocation:
		return r.Location.Name
	}
	return "scanned"
}

var movementSteps = []StepSpec{
	{Kind: StepScan, Want: TypeLocation, Slot: SlotSource},
	{Kind: StepScan, Want: TypeItem, Slot: SlotItem},
	{Kind: StepQty},
	{Kind: StepScan, Want: TypeLocation, Slot: SlotDestination},
	{Kind: StepConfirm},
}

var pickupSteps = []StepSpec{
	{Kind: StepScan, Want: TypeLocation, Slot: SlotSource},
	{Kind: StepScan, Want: TypeItem, Slot: SlotItem},
	{Kind: StepQty},
	{Kind: StepConfirm},
}

// movementSubmit adapts one movement endpoint into a SubmitFunc
func movementSubmit(call func(context.Context, MovementPayload) error, withDestination bool) SubmitFunc {
	return func(ctx context.Context, d *Draft, qty float64, opID string) error {
		p := MovementPayload{
			OpID:           opID,
			FromLocationID: d.Source.ID,
			ItemID:         d.Item.ID,
			Qty:            qty,
		}
		if withDestination {
			id := d.Destination.ID
			p.ToLocationID = &id
		}
		return call(ctx, p)
	}
}

// NewMoveWorkflow drives an inter-location move
func NewMoveWorkflow(c *Client, f *Feedback) *Workflow {
	return NewWorkflow(ModeSpec{
		Name:     "Move",
		OpPrefix: "move",
		Steps:    movementSteps,
		Submit:   movementSubmit(c.ExecuteMove, true),
	}, c, f)
}

// NewPutawayWorkflow drives a putaway from staging to storage
func NewPutawayWorkflow(c *Client, f *Feedback) *Workflow {
	return NewWorkflow(ModeSpec{
		Name:     "Putaway",
		OpPrefix: "putaway",
		Steps:    movementSteps,
		Submit:   movementSubmit(c.ExecutePutaway, true),
	}, c, f)
}

// NewReplenishWorkflow drives a replenishment move
func NewReplenishWorkflow(c *Client, f *Feedback) *Workflow {
	return NewWorkflow(ModeSpec{
		Name:     "Replenish",
		OpPrefix: "replen",
		Steps:    movementSteps,
		Submit:   movementSubmit(c.ExecuteReplenish, true),
	}, c, f)
}

// NewPickWorkflow drives a pick; picks have no destination scan
func NewPickWorkflow(c *Client, f *Feedback) *Workflow {
	return NewWorkflow(ModeSpec{
		Name:     "Pick",
		OpPrefix: "pick",
		Steps:    pickupSteps,
		Submit:   movementSubmit(c.ExecutePick, false),
	}, c, f)
}

// NewCountWorkflow drives a cycle count; counting zero is a valid result
func NewCountWorkflow(c *Client, f *Feedback) *Workflow {
	return NewWorkflow(ModeSpec{
		Name:         "Count",
		OpPrefix:     "count",
		Steps:        pickupSteps,
		AllowZeroQty: true,
		Submit: func(ctx context.Context, d *Draft, qty float64, opID string) error {
			return c.SaveCount(ctx, CountPayload{
				OpID:       opID,
				LocationID: d.Source.ID,
				ItemID:     d.Item.ID,
				Qty:        qty,
			})
		},
	}, c, f)
}
