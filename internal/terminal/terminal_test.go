package terminal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// fakeSignaler records emitted tones and vibrations
type fakeSignaler struct {
	mu        sync.Mutex
	successes int
	errors    int
	vibes     int
	unlocks   int
}

func (s *fakeSignaler) SuccessTone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
}

func (s *fakeSignaler) ErrorTone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

func (s *fakeSignaler) Vibrate(time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vibes++
}

func (s *fakeSignaler) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocks++
}

// fakePrefs is an in-memory preference store
type fakePrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{values: make(map[string]string)}
}

func (p *fakePrefs) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *fakePrefs) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
}

func newTestFeedback() (*Feedback, *fakeSignaler, *fakePrefs) {
	signaler := &fakeSignaler{}
	prefs := newFakePrefs()
	return NewFeedback(signaler, prefs), signaler, prefs
}

// scanFixture answers /warehouse/scan/resolve from a static code table
// and counts resolver hits
type scanFixture struct {
	mu        sync.Mutex
	resolves  int
	locations map[string]models.StockLocation
	items     map[string]models.Product
}

func (f *scanFixture) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.resolves++
	f.mu.Unlock()

	code := r.URL.Query().Get("code")
	if loc, ok := f.locations[code]; ok {
		json.NewEncoder(w).Encode(map[string]interface{}{"type": "location", "entity": loc})
		return
	}
	if item, ok := f.items[code]; ok {
		json.NewEncoder(w).Encode(map[string]interface{}{"type": "item", "entity": item})
		return
	}
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"message": "not found"})
}

func (f *scanFixture) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolves
}

func newScanFixture() *scanFixture {
	return &scanFixture{
		locations: map[string]models.StockLocation{
			"LOC-A": {ID: 10, Name: "Rack A", Code: "LOC-A"},
			"LOC-B": {ID: 20, Name: "Rack B", Code: "LOC-B"},
		},
		items: map[string]models.Product{
			"4001": {ID: 1, Name: "Widget", SKU: "WID-1", Barcode: "4001"},
			"4002": {ID: 2, Name: "Gadget", SKU: "GAD-2", Barcode: "4002"},
		},
	}
}

func newTestServer(fixture *scanFixture, extra map[string]http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/warehouse/scan/resolve", fixture.handle)
	for pattern, handler := range extra {
		mux.HandleFunc(pattern, handler)
	}
	return httptest.NewServer(mux)
}
