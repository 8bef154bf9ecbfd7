package terminal

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// Line statuses, derived and never stored
type LineStatus string

const (
	StatusNew     LineStatus = "NEW"
	StatusPartial LineStatus = "PARTIAL"
	StatusDone    LineStatus = "DONE"
)

// Display filters
type LineFilter string

const (
	FilterAll       LineFilter = "all"
	FilterRemaining LineFilter = "remaining"
	FilterAccepted  LineFilter = "accepted"
)

// OrderLine pairs a server order line with the session's local acceptance.
// The three derived values are recomputed from the two authoritative
// inputs on every read.
type OrderLine struct {
	Line          models.PurchaseOrderLine
	LocalAccepted float64
}

// AcceptedTotal is server-received plus locally accepted quantity
func (l OrderLine) AcceptedTotal() float64 {
	return l.Line.ReceivedQty + l.LocalAccepted
}

// Remaining is the quantity still outstanding, never negative
func (l OrderLine) Remaining() float64 {
	return math.Max(0, l.Line.OrderedQty-l.AcceptedTotal())
}

// Status derives the line state from the accepted total
func (l OrderLine) Status() LineStatus {
	if l.AcceptedTotal() <= 0 {
		return StatusNew
	}
	if l.Remaining() <= 0 {
		return StatusDone
	}
	return StatusPartial
}

// OrderSession reconciles scans against one purchase order
type OrderSession struct {
	client   *Client
	feedback *Feedback

	mu      sync.Mutex
	order   models.PurchaseOrder
	local   map[int64]float64 // productID -> locally accepted qty
	search  string
	filter  LineFilter
	loading bool
	done    bool
	err     string
	epoch   uint64
}

// NewOrderSession starts receiving against an order
func NewOrderSession(order models.PurchaseOrder, client *Client, feedback *Feedback) *OrderSession {
	return &OrderSession{
		client:   client,
		feedback: feedback,
		order:    order,
		local:    make(map[int64]float64),
		filter:   FilterAll,
	}
}

// Order returns the current order snapshot
func (s *OrderSession) Order() models.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// Done reports whether the receipt was confirmed
func (s *OrderSession) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the inline error message, empty when none
func (s *OrderSession) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// HandleScan resolves a code and accepts one unit of a member item.
// A non-member item never mutates state and always signals an error.
func (s *OrderSession) HandleScan(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	result, err := s.client.ResolveScan(ctx, code)
	if err != nil {
		s.feedback.Error(err.Error())
		return err
	}
	if result.Type != TypeItem {
		s.feedback.Error(ErrNotAnItem.Error())
		return ErrNotAnItem
	}

	s.mu.Lock()
	line := s.findLine(result.Item.ID)
	if line == nil {
		s.mu.Unlock()
		s.feedback.Error(ErrNotInOrder.Error())
		return ErrNotInOrder
	}
	s.local[result.Item.ID]++
	lineID := line.ID
	s.mu.Unlock()

	s.feedback.Pulse(lineID)
	s.feedback.Success(result.Item.Name)
	return nil
}

// SetAccepted overrides the locally accepted quantity of one member line
func (s *OrderSession) SetAccepted(productID int64, qty float64) error {
	if qty < 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return &ValidationError{Field: "qty", Reason: "quantity must be a non-negative number"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLine(productID) == nil {
		return ErrNotInOrder
	}
	s.local[productID] = qty
	return nil
}

// SetSearch sets the text filter over name, SKU and barcode
func (s *OrderSession) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = strings.ToLower(strings.TrimSpace(query))
}

// SetFilter sets the three-way mode filter
func (s *OrderSession) SetFilter(filter LineFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
}

// Lines returns every session line with its local acceptance
func (s *OrderSession) Lines() []OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allLines()
}

// Visible returns the lines passing the search and mode filters.
// Filtering restricts display only; the underlying set is untouched.
func (s *OrderSession) Visible() []OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []OrderLine
	for _, line := range s.allLines() {
		if s.search != "" && !matchesSearch(line.Line.Product, s.search) {
			continue
		}
		switch s.filter {
		case FilterRemaining:
			if line.Remaining() <= 0 {
				continue
			}
		case FilterAccepted:
			if line.AcceptedTotal() <= 0 {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

// ConfirmPayload builds the submission lines: every locally accepted qty > 0
func (s *OrderSession) ConfirmPayload() []ConfirmLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmPayload()
}

func (s *OrderSession) confirmPayload() []ConfirmLine {
	var lines []ConfirmLine
	for _, line := range s.order.Lines {
		if qty := s.local[line.ProductID]; qty > 0 {
			lines = append(lines, ConfirmLine{ProductID: line.ProductID, Qty: qty})
		}
	}
	return lines
}

// Confirm submits the accepted quantities, replaces the local order with
// the server truth and triggers the discrepancy print flow on shortages.
// A print failure is surfaced but does not undo the done state.
func (s *OrderSession) Confirm(ctx context.Context, printFlow *PrintFlow, collect ProfileCollector) ([]byte, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	payload := s.confirmPayload()
	if len(payload) == 0 {
		s.err = ErrEmptyPayload.Error()
		s.mu.Unlock()
		return nil, ErrEmptyPayload
	}
	s.loading = true
	s.err = ""
	epoch := s.epoch
	orderID := s.order.ID
	s.mu.Unlock()

	opID := NewOpID("po-receive")
	updated, err := s.client.ConfirmOrderReceipt(ctx, orderID, opID, payload)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil, nil
	}
	s.loading = false
	if err != nil {
		s.err = err.Error()
		s.mu.Unlock()
		s.feedback.Error(err.Error())
		return nil, err
	}

	// Server truth replaces local optimistic state
	s.order = *updated
	s.local = make(map[int64]float64)
	s.done = true
	shortages := updated.Shortages()
	s.mu.Unlock()

	s.feedback.Success("Receipt confirmed")

	if len(shortages) == 0 || printFlow == nil {
		return nil, nil
	}

	act, printErr := printFlow.Run(ctx, orderID, collect)
	if printErr != nil {
		// The receipt itself succeeded; only the paperwork failed
		s.mu.Lock()
		s.err = printErr.Error()
		s.mu.Unlock()
		s.feedback.Error(printErr.Error())
		return nil, printErr
	}
	return act, nil
}

// Reset discards local acceptance and invalidates in-flight responses.
// The loading flag belongs to the superseded request, so it is cleared
// here; the stale response sees the epoch mismatch and leaves it alone.
func (s *OrderSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = make(map[int64]float64)
	s.loading = false
	s.done = false
	s.err = ""
	s.epoch++
}

func (s *OrderSession) allLines() []OrderLine {
	out := make([]OrderLine, 0, len(s.order.Lines))
	for _, line := range s.order.Lines {
		out = append(out, OrderLine{Line: line, LocalAccepted: s.local[line.ProductID]})
	}
	return out
}

func (s *OrderSession) findLine(productID int64) *models.PurchaseOrderLine {
	for i := range s.order.Lines {
		if s.order.Lines[i].ProductID == productID {
			return &s.order.Lines[i]
		}
	}
	return nil
}

func matchesSearch(p models.Product, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.SKU), query) ||
		strings.Contains(strings.ToLower(p.Barcode), query)
}

// AdHocSession accumulates scanned items for a receipt without an order
type AdHocSession struct {
	client   *Client
	feedback *Feedback

	mu       sync.Mutex
	location *models.StockLocation
	lines    []ReceiveLine
	items    map[int64]models.Product
	loading  bool
	done     bool
	err      string
	epoch    uint64
}

// NewAdHocSession starts an ad hoc receiving session
func NewAdHocSession(client *Client, feedback *Feedback) *AdHocSession {
	return &AdHocSession{
		client:   client,
		feedback: feedback,
		items:    make(map[int64]models.Product),
	}
}

// SetLocation fixes the destination location for the receipt
func (s *AdHocSession) SetLocation(loc *models.StockLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
}

// HandleScan accepts one unit of the scanned item, merging into an
// existing line for the same item if present
func (s *AdHocSession) HandleScan(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	result, err := s.client.ResolveScan(ctx, code)
	if err != nil {
		s.feedback.Error(err.Error())
		return err
	}
	if result.Type != TypeItem {
		s.feedback.Error(ErrNotAnItem.Error())
		return ErrNotAnItem
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].ItemID == result.Item.ID {
			s.lines[i].Qty++
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, ReceiveLine{ItemID: result.Item.ID, Qty: 1})
	}
	s.items[result.Item.ID] = *result.Item
	s.mu.Unlock()

	s.feedback.Success(result.Item.Name)
	return nil
}

// SetQty overrides the quantity of one accumulated line
func (s *AdHocSession) SetQty(itemID int64, qty float64) error {
	if qty < 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return &ValidationError{Field: "qty", Reason: "quantity must be a non-negative number"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			s.lines[i].Qty = qty
			return nil
		}
	}
	return ErrScanNotFound
}

// Lines returns the accumulated receipt lines
func (s *AdHocSession) Lines() []ReceiveLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReceiveLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Confirm submits every line with a positive quantity
func (s *AdHocSession) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.location == nil {
		s.err = "location is required"
		s.mu.Unlock()
		return &ValidationError{Field: "location", Reason: "location is required"}
	}
	var payload []ReceiveLine
	for _, line := range s.lines {
		if line.Qty > 0 {
			payload = append(payload, line)
		}
	}
	if len(payload) == 0 {
		s.err = ErrEmptyPayload.Error()
		s.mu.Unlock()
		return ErrEmptyPayload
	}
	s.loading = true
	s.err = ""
	epoch := s.epoch
	locationID := s.location.ID
	s.mu.Unlock()

	err := s.client.ReceiveAdHoc(ctx, AdHocReceivePayload{
		OpID:       NewOpID("receive"),
		LocationID: locationID,
		Lines:      payload,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.loading = false
	if err != nil {
		s.err = err.Error()
		s.feedback.Error(err.Error())
		return err
	}
	s.done = true
	s.feedback.Success("Receipt saved")
	return nil
}

// Done reports whether the receipt was confirmed
func (s *AdHocSession) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Reset discards the session state and invalidates in-flight responses.
// Loading is cleared here so a discarded submission cannot wedge the
// session; the stale response sees the epoch mismatch and leaves it alone.
func (s *AdHocSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.items = make(map[int64]models.Product)
	s.location = nil
	s.loading = false
	s.done = false
	s.err = ""
	s.epoch++
}
