package terminal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

type auditRecorder struct {
	mu          sync.Mutex
	starts      int
	finishes    int
	confirmBody *binAuditRequest
	discrepBody *binAuditRequest
}

type binAuditRequest struct {
	OpID       string            `json:"opId"`
	LocationID int64             `json:"locationId"`
	Lines      []DiscrepancyLine `json:"lines"`
}

func newAuditServer(rec *auditRecorder) map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/warehouse/bin-audit/start": func(w http.ResponseWriter, r *http.Request) {
			rec.mu.Lock()
			rec.starts++
			rec.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]string{"sessionId": "audit-session-1"})
		},
		"/warehouse/bin-audit/expected": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ExpectedStock{
				Location: models.StockLocation{ID: 10, Name: "Rack A", Code: "LOC-A"},
				Items: []ExpectedItem{
					{Item: models.Product{ID: 1, Name: "Widget", Barcode: "4001"}, ExpectedQty: 5},
					{Item: models.Product{ID: 2, Name: "Gadget", Barcode: "4002"}, ExpectedQty: 2},
				},
			})
		},
		"/warehouse/bin-audit/audit-session-1/confirm": func(w http.ResponseWriter, r *http.Request) {
			var body binAuditRequest
			json.NewDecoder(r.Body).Decode(&body)
			rec.mu.Lock()
			rec.confirmBody = &body
			rec.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		},
		"/warehouse/bin-audit/audit-session-1/discrepancy": func(w http.ResponseWriter, r *http.Request) {
			var body binAuditRequest
			json.NewDecoder(r.Body).Decode(&body)
			rec.mu.Lock()
			rec.discrepBody = &body
			rec.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		},
		"/warehouse/bin-audit/audit-session-1/finish": func(w http.ResponseWriter, r *http.Request) {
			rec.mu.Lock()
			rec.finishes++
			rec.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		},
	}
}

func TestSubmitWithoutSessionFailsLocally(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)

	if err := session.ConfirmOK(context.Background()); err != ErrSessionMissing {
		t.Fatalf("Expected ErrSessionMissing, got %v", err)
	}
	if err := session.Finish(context.Background()); err != ErrSessionMissing {
		t.Fatalf("Expected ErrSessionMissing on finish, got %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.starts != 0 || rec.finishes != 0 {
		t.Error("No request should be made without a session")
	}
}

func TestEnterStartsSessionOnce(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := session.Enter(ctx); err != nil {
			t.Fatalf("Enter %d failed: %v", i, err)
		}
	}
	if session.SessionID() != "audit-session-1" {
		t.Errorf("Unexpected session id %q", session.SessionID())
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.starts != 1 {
		t.Errorf("Expected exactly one session start, got %d", rec.starts)
	}
}

func TestCountsSeededFromExpected(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	if err := session.Enter(ctx); err != nil {
		t.Fatal(err)
	}
	if err := session.LoadLocation(ctx, 10); err != nil {
		t.Fatal(err)
	}

	// Untouched entries equal the expected quantities: no discrepancies
	if lines := session.DiscrepancyLines(); len(lines) != 0 {
		t.Errorf("Seeded counts must produce no discrepancies, got %+v", lines)
	}
}

func TestConfirmOKSendsNoLines(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	session.LoadLocation(ctx, 10)

	if err := session.ConfirmOK(ctx); err != nil {
		t.Fatalf("ConfirmOK failed: %v", err)
	}

	rec.mu.Lock()
	body := rec.confirmBody
	rec.mu.Unlock()
	if body == nil {
		t.Fatal("Confirm never reached the server")
	}
	if body.LocationID != 10 {
		t.Errorf("Expected location 10, got %d", body.LocationID)
	}
	if len(body.Lines) != 0 {
		t.Errorf("A clean confirm must carry no lines, got %+v", body.Lines)
	}
	if body.OpID == "" {
		t.Error("Confirm must carry an op id")
	}

	// The visit is closed but the session stays open for the next bin
	if session.Location() != nil {
		t.Error("Location must be cleared after a confirmed visit")
	}
	if session.SessionID() == "" {
		t.Error("Session must survive a confirmed visit")
	}
}

func TestDiscrepancyReportsOnlyDiffering(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	session.LoadLocation(ctx, 10)

	session.SetCounted(1, "3") // expected 5
	// Item 2 stays at its seeded "2": matches, must not be reported

	lines := session.DiscrepancyLines()
	if len(lines) != 1 {
		t.Fatalf("Expected 1 discrepancy line, got %+v", lines)
	}
	if lines[0].ItemID != 1 || lines[0].ExpectedQty != 5 || lines[0].CountedQty != 3 {
		t.Errorf("Unexpected discrepancy line: %+v", lines[0])
	}

	if err := session.ReportDiscrepancy(ctx); err != nil {
		t.Fatalf("ReportDiscrepancy failed: %v", err)
	}

	rec.mu.Lock()
	body := rec.discrepBody
	rec.mu.Unlock()
	if body == nil || len(body.Lines) != 1 || body.Lines[0].ItemID != 1 {
		t.Fatalf("Server received wrong discrepancy body: %+v", body)
	}
}

func TestUnparsableCountsAreIgnored(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	session.LoadLocation(ctx, 10)

	for _, raw := range []string{"", "abc", "-1", "NaN", "+Inf"} {
		session.SetCounted(1, raw)
		if lines := session.DiscrepancyLines(); len(lines) != 0 {
			t.Errorf("Entry %q must not produce a discrepancy, got %+v", raw, lines)
		}
	}

	if err := session.ReportDiscrepancy(ctx); err != ErrEmptyPayload {
		t.Fatalf("Expected ErrEmptyPayload, got %v", err)
	}
}

func TestFinishClearsEverything(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	session.LoadLocation(ctx, 10)
	session.SetCounted(1, "3")

	if err := session.Finish(ctx); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if session.SessionID() != "" {
		t.Error("Session id must be cleared on finish")
	}
	if session.Location() != nil {
		t.Error("Location must be cleared on finish")
	}
	if lines := session.DiscrepancyLines(); len(lines) != 0 {
		t.Errorf("Pending counts must be discarded on finish, got %+v", lines)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.finishes != 1 {
		t.Errorf("Expected one finish call, got %d", rec.finishes)
	}
}

func TestAuditScanLoadsLocation(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	if err := session.HandleScan(ctx, "LOC-A"); err != nil {
		t.Fatalf("Location scan failed: %v", err)
	}
	if loc := session.Location(); loc == nil || loc.ID != 10 {
		t.Errorf("Expected location 10 loaded, got %+v", loc)
	}
}

func TestAuditScanRejectsUnexpectedItem(t *testing.T) {
	fixture := newScanFixture()
	fixture.items["4003"] = models.Product{ID: 3, Name: "Sprocket", Barcode: "4003"}
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, signaler, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	session.LoadLocation(ctx, 10)

	if err := session.HandleScan(ctx, "4003"); err != ErrNotAtLocation {
		t.Fatalf("Expected ErrNotAtLocation, got %v", err)
	}
	if lines := session.DiscrepancyLines(); len(lines) != 0 {
		t.Errorf("Rejected scan must not change counts, got %+v", lines)
	}
	if signaler.errors != 1 {
		t.Errorf("Rejected scan must emit an error signal, got %d", signaler.errors)
	}
}

func TestAuditScanRequiresLocation(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	err := session.HandleScan(ctx, "4001")
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("Item scan without a location must fail locally, got %v", err)
	}
}

// Scanning recounts from scratch: the first scan replaces the seeded
// entry with 1, further scans add one each
func TestAuditScanRecountsItem(t *testing.T) {
	fixture := newScanFixture()
	rec := &auditRecorder{}
	server := newTestServer(fixture, newAuditServer(rec))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	feedback, _, _ := newTestFeedback()
	session := NewAuditSession(client, feedback)
	ctx := context.Background()

	session.Enter(ctx)
	session.LoadLocation(ctx, 10)

	// Expected 5; one scan means a count of 1, not 6
	if err := session.HandleScan(ctx, "4001"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	lines := session.DiscrepancyLines()
	if len(lines) != 1 || lines[0].ItemID != 1 || lines[0].CountedQty != 1 {
		t.Fatalf("Expected counted 1 for item 1, got %+v", lines)
	}

	// Four more scans bring the recount back to the expected 5
	for i := 0; i < 4; i++ {
		if err := session.HandleScan(ctx, "4001"); err != nil {
			t.Fatalf("Scan %d failed: %v", i, err)
		}
	}
	if lines := session.DiscrepancyLines(); len(lines) != 0 {
		t.Errorf("Recount matching expected must not be a discrepancy, got %+v", lines)
	}
}
