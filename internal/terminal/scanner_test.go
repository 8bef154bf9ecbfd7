package terminal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// feedServer upgrades one connection and lets the test push frames
type feedServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.conns <- conn
	}))
	return fs
}

func (fs *feedServer) url() string {
	return "ws" + strings.TrimPrefix(fs.server.URL, "http")
}

func (fs *feedServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-fs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("No websocket connection arrived")
		return nil
	}
}

func TestScanFeedDeliversFrames(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.server.Close()

	codes := make(chan string, 4)
	feed := NewScanFeed(fs.url(), func(code string) { codes <- code })
	if err := feed.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer feed.Stop()

	conn := fs.accept(t)
	defer conn.Close()

	conn.WriteJSON(scanFrame{Type: "SCAN", Code: "4001"})
	select {
	case code := <-codes:
		if code != "4001" {
			t.Errorf("Expected code 4001, got %q", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Frame was not delivered")
	}

	// Frames of other types are dropped
	conn.WriteJSON(scanFrame{Type: "PING", Code: "x"})
	conn.WriteJSON(scanFrame{Type: "SCAN", Code: "4002"})
	select {
	case code := <-codes:
		if code != "4002" {
			t.Errorf("Non-scan frame leaked through: %q", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Second frame was not delivered")
	}
}

func TestScanFeedStopCancelsDelivery(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.server.Close()

	codes := make(chan string, 4)
	feed := NewScanFeed(fs.url(), func(code string) { codes <- code })
	if err := feed.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	conn := fs.accept(t)
	defer conn.Close()

	if !feed.Active() {
		t.Fatal("Feed should be active after Start")
	}

	feed.Stop()
	if feed.Active() {
		t.Error("Feed should be inactive after Stop")
	}

	// A frame written after Stop must never reach the handler
	conn.WriteJSON(scanFrame{Type: "SCAN", Code: "late"})
	select {
	case code := <-codes:
		t.Errorf("Stale frame delivered after Stop: %q", code)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScanFeedRestartReplacesSubscription(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.server.Close()

	codes := make(chan string, 4)
	feed := NewScanFeed(fs.url(), func(code string) { codes <- code })
	if err := feed.Start(); err != nil {
		t.Fatalf("First start failed: %v", err)
	}
	first := fs.accept(t)
	defer first.Close()

	if err := feed.Start(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	defer feed.Stop()
	second := fs.accept(t)
	defer second.Close()

	// Only the new subscription delivers
	second.WriteJSON(scanFrame{Type: "SCAN", Code: "fresh"})
	select {
	case code := <-codes:
		if code != "fresh" {
			t.Errorf("Expected frame from the new subscription, got %q", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Frame from the new subscription was not delivered")
	}
}

// Stop must wait out a handler call already in flight, so that after it
// returns no callback from the old subscription can still run
func TestScanFeedStopWaitsForInFlightDelivery(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.server.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	feed := NewScanFeed(fs.url(), func(code string) {
		close(entered)
		<-release
	})
	if err := feed.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	conn := fs.accept(t)
	defer conn.Close()

	conn.WriteJSON(scanFrame{Type: "SCAN", Code: "4001"})
	<-entered

	stopped := make(chan struct{})
	go func() {
		feed.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a delivery was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the delivery finished")
	}
}
