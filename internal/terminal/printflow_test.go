package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

func validProfile() *models.OrgProfile {
	return &models.OrgProfile{
		OrgName:       "Acme Logistics",
		LegalAddress:  "1 Main St",
		ActualAddress: "2 Dock Rd",
		INN:           "7701234567",
		KPP:           "770101001",
	}
}

func TestPrintForbiddenIsHardStop(t *testing.T) {
	fixture := newScanFixture()
	var mu sync.Mutex
	collected := 0
	actFetches := 0
	extra := map[string]http.HandlerFunc{
		"/settings/org-profile": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"message": "Access denied"})
		},
		"/purchase-orders/77/print-receive-act": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			actFetches++
			mu.Unlock()
		},
	}
	server := newTestServer(fixture, extra)
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	flow := NewPrintFlow(client)

	_, err := flow.Run(context.Background(), 77, func() (*models.OrgProfile, error) {
		collected++
		return validProfile(), nil
	})
	if !errors.Is(err, ErrPrintAccess) {
		t.Fatalf("Expected ErrPrintAccess, got %v", err)
	}
	if collected != 0 {
		t.Error("A forbidden profile check must not prompt for requisites")
	}
	mu.Lock()
	defer mu.Unlock()
	if actFetches != 0 {
		t.Error("A forbidden profile check must not fetch the act")
	}
}

func TestMissingProfileIsCollectedAndSaved(t *testing.T) {
	fixture := newScanFixture()
	var mu sync.Mutex
	var saved *models.OrgProfile
	extra := map[string]http.HandlerFunc{
		"/settings/org-profile": func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"message": "profile not found"})
			case http.MethodPut:
				var p models.OrgProfile
				json.NewDecoder(r.Body).Decode(&p)
				mu.Lock()
				saved = &p
				mu.Unlock()
				json.NewEncoder(w).Encode(map[string]interface{}{"profile": p})
			}
		},
		"/purchase-orders/77/print-receive-act": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 act"))
		},
	}
	server := newTestServer(fixture, extra)
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	flow := NewPrintFlow(client)

	act, err := flow.Run(context.Background(), 77, func() (*models.OrgProfile, error) {
		return validProfile(), nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	mu.Lock()
	if saved == nil || saved.OrgName != "Acme Logistics" {
		t.Errorf("Collected profile was not persisted: %+v", saved)
	}
	mu.Unlock()
	if !bytes.HasPrefix(act, []byte("%PDF")) {
		t.Errorf("Expected the rendered act, got %q", act)
	}
}

func TestIncompleteProfileRejectedBeforeSave(t *testing.T) {
	fixture := newScanFixture()
	var mu sync.Mutex
	saves := 0
	extra := map[string]http.HandlerFunc{
		"/settings/org-profile": func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut {
				mu.Lock()
				saves++
				mu.Unlock()
				return
			}
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "profile not found"})
		},
	}
	server := newTestServer(fixture, extra)
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	flow := NewPrintFlow(client)

	incomplete := validProfile()
	incomplete.INN = ""
	_, err := flow.Run(context.Background(), 77, func() (*models.OrgProfile, error) {
		return incomplete, nil
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if saves != 0 {
		t.Error("An incomplete profile must never be saved")
	}
}

func TestNoContentMeansNothingToPrint(t *testing.T) {
	fixture := newScanFixture()
	extra := map[string]http.HandlerFunc{
		"/settings/org-profile": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"profile": validProfile()})
		},
		"/purchase-orders/77/print-receive-act": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	}
	server := newTestServer(fixture, extra)
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	flow := NewPrintFlow(client)

	act, err := flow.Run(context.Background(), 77, nil)
	if err != nil {
		t.Fatalf("A fully received order must not error: %v", err)
	}
	if act != nil {
		t.Errorf("Expected no document, got %d bytes", len(act))
	}
}
