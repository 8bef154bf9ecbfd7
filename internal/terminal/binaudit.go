package terminal

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// AuditSession drives a multi-location cycle count. One session id spans
// every location audited until the operator explicitly finishes.
type AuditSession struct {
	client   *Client
	feedback *Feedback

	mu        sync.Mutex
	sessionID string
	location  *models.StockLocation
	items     map[int64]models.Product
	expected  map[int64]float64
	counted   map[int64]string // raw operator entries, parsed on submit
	scanned   map[int64]bool   // items recounted by scanning this visit
	loading   bool
	err       string
}

// NewAuditSession creates the bin-audit session manager
func NewAuditSession(client *Client, feedback *Feedback) *AuditSession {
	return &AuditSession{
		client:   client,
		feedback: feedback,
		items:    make(map[int64]models.Product),
	}
}

// Enter lazily starts a server session on first entry into the mode
func (s *AuditSession) Enter(ctx context.Context) error {
	s.mu.Lock()
	if s.sessionID != "" {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	id, err := s.client.StartBinAudit(ctx)
	if err != nil {
		s.feedback.Error(err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A racing Enter may have won; keep the first session
	if s.sessionID == "" {
		s.sessionID = id
	}
	return nil
}

// SessionID returns the active session id, empty when none
func (s *AuditSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// LoadLocation fetches the expected stock at a location and seeds the
// counted entries from the expected quantities
func (s *AuditSession) LoadLocation(ctx context.Context, locationID int64) error {
	stock, err := s.client.BinAuditExpected(ctx, locationID)
	if err != nil {
		s.feedback.Error(err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = &stock.Location
	s.items = make(map[int64]models.Product, len(stock.Items))
	s.expected = make(map[int64]float64, len(stock.Items))
	s.counted = make(map[int64]string, len(stock.Items))
	s.scanned = make(map[int64]bool, len(stock.Items))
	for _, item := range stock.Items {
		s.items[item.Item.ID] = item.Item
		s.expected[item.Item.ID] = item.ExpectedQty
		s.counted[item.Item.ID] = strconv.FormatFloat(item.ExpectedQty, 'f', -1, 64)
	}
	return nil
}

// HandleScan resolves a code during an audit. A location scan loads that
// location's expected stock. An item scan recounts the item: the first
// scan of a visit replaces the seeded entry with 1, each further scan
// adds one. Items not expected at the loaded location are rejected.
func (s *AuditSession) HandleScan(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	result, err := s.client.ResolveScan(ctx, code)
	if err != nil {
		s.feedback.Error(err.Error())
		return err
	}
	if result.Type == TypeLocation {
		return s.LoadLocation(ctx, result.Location.ID)
	}
	if result.Type != TypeItem {
		s.feedback.Error(ErrNotAnItem.Error())
		return ErrNotAnItem
	}

	s.mu.Lock()
	if s.location == nil {
		s.mu.Unlock()
		err := &ValidationError{Field: "location", Reason: "scan a location first"}
		s.feedback.Error(err.Error())
		return err
	}
	itemID := result.Item.ID
	if _, ok := s.expected[itemID]; !ok {
		s.mu.Unlock()
		s.feedback.Error(ErrNotAtLocation.Error())
		return ErrNotAtLocation
	}
	qty := 1.0
	if s.scanned[itemID] {
		prev, err := strconv.ParseFloat(strings.TrimSpace(s.counted[itemID]), 64)
		if err == nil && !math.IsNaN(prev) && !math.IsInf(prev, 0) && prev >= 0 {
			qty = prev + 1
		}
	}
	s.scanned[itemID] = true
	s.counted[itemID] = strconv.FormatFloat(qty, 'f', -1, 64)
	s.mu.Unlock()

	s.feedback.Success(result.Item.Name)
	return nil
}

// Location returns the currently loaded location, nil when none
func (s *AuditSession) Location() *models.StockLocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Expected returns the expected quantity of one item
func (s *AuditSession) Expected(itemID int64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expected[itemID]
}

// SetCounted stores the operator's raw counted entry for one item
func (s *AuditSession) SetCounted(itemID int64, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counted == nil {
		return
	}
	s.counted[itemID] = raw
}

// DiscrepancyLines computes the reportable differences: a counted entry
// is retained only when it parses to a finite non-negative number that
// differs from the expected quantity.
func (s *AuditSession) DiscrepancyLines() []DiscrepancyLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []DiscrepancyLine
	for itemID, expectedQty := range s.expected {
		raw := strings.TrimSpace(s.counted[itemID])
		counted, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(counted) || math.IsInf(counted, 0) || counted < 0 {
			continue
		}
		if counted == expectedQty {
			continue
		}
		lines = append(lines, DiscrepancyLine{
			ItemID:      itemID,
			ExpectedQty: expectedQty,
			CountedQty:  counted,
		})
	}
	return lines
}

// ConfirmOK asserts all counts match expectations; no line data is sent
func (s *AuditSession) ConfirmOK(ctx context.Context) error {
	sessionID, locationID, err := s.submitGuard()
	if err != nil {
		return err
	}

	err = s.client.ConfirmBinAudit(ctx, sessionID, NewOpID("audit-ok"), locationID)
	s.settle(err)
	if err == nil {
		s.feedback.Success("Location confirmed")
		s.clearLocation()
	}
	return err
}

// ReportDiscrepancy submits only the differing lines
func (s *AuditSession) ReportDiscrepancy(ctx context.Context) error {
	sessionID, locationID, err := s.submitGuard()
	if err != nil {
		return err
	}

	lines := s.DiscrepancyLines()
	if len(lines) == 0 {
		s.settle(ErrEmptyPayload)
		return ErrEmptyPayload
	}

	err = s.client.ReportBinAuditDiscrepancy(ctx, sessionID, NewOpID("audit-diff"), locationID, lines)
	s.settle(err)
	if err == nil {
		s.feedback.Success("Discrepancy recorded")
		s.clearLocation()
	}
	return err
}

// Finish explicitly ends the session and clears all local audit state,
// regardless of in-progress location data
func (s *AuditSession) Finish(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.sessionID
	s.mu.Unlock()
	if sessionID == "" {
		return ErrSessionMissing
	}

	err := s.client.FinishBinAudit(ctx, sessionID)
	if err != nil {
		s.feedback.Error(err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = ""
	s.location = nil
	s.items = make(map[int64]models.Product)
	s.expected = nil
	s.counted = nil
	s.scanned = nil
	s.err = ""
	return nil
}

// submitGuard checks session and location presence without touching the
// network; the absence of either is a local error
func (s *AuditSession) submitGuard() (sessionID string, locationID int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID == "" {
		s.err = ErrSessionMissing.Error()
		return "", 0, ErrSessionMissing
	}
	if s.location == nil {
		s.err = "no location loaded"
		return "", 0, &ValidationError{Field: "location", Reason: "scan a location first"}
	}
	if s.loading {
		return "", 0, ErrBusy
	}
	s.loading = true
	s.err = ""
	return s.sessionID, s.location.ID, nil
}

// settle clears the loading flag and records a failure inline
func (s *AuditSession) settle(err error) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
	}
	s.mu.Unlock()
	if err != nil {
		s.feedback.Error(err.Error())
	}
}

// clearLocation drops the per-location state after a completed visit
func (s *AuditSession) clearLocation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = nil
	s.items = make(map[int64]models.Product)
	s.expected = nil
	s.counted = nil
	s.scanned = nil
}
