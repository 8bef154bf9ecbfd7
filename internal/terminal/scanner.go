package terminal

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// scanFrame mirrors the gateway's wire format
type scanFrame struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// ScanFeed is a cancellable subscription to the scan-event gateway.
// Every Start bumps an epoch; a read loop from a previous subscription
// checks its epoch under the delivery lock before invoking the handler,
// and Stop takes that same lock, so once Stop returns no stale callback
// is running or can start.
type ScanFeed struct {
	url     string
	handler func(code string)

	// deliverMu is held across the epoch check and the handler call;
	// acquired before mu, never the other way around
	deliverMu sync.Mutex

	mu    sync.Mutex
	epoch uint64
	conn  *websocket.Conn
}

// NewScanFeed creates a feed delivering decoded codes to handler
func NewScanFeed(url string, handler func(code string)) *ScanFeed {
	return &ScanFeed{url: url, handler: handler}
}

// Start opens the websocket subscription. A previous subscription, if
// any, is cancelled first.
func (f *ScanFeed) Start() error {
	f.mu.Lock()
	f.epoch++
	epoch := f.epoch
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	// Stop may have raced the dial; release the connection immediately
	if f.epoch != epoch {
		f.mu.Unlock()
		conn.Close()
		return nil
	}
	f.conn = conn
	f.mu.Unlock()

	go f.readLoop(conn, epoch)
	return nil
}

// Stop cancels the subscription and releases the connection. Safe to
// call on every exit path, including when no subscription is active.
// Blocks until any in-flight delivery finishes, so it must not be
// called from inside the handler.
func (f *ScanFeed) Stop() {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

// Active reports whether a subscription currently holds the connection
func (f *ScanFeed) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn != nil
}

func (f *ScanFeed) readLoop(conn *websocket.Conn, epoch uint64) {
	defer conn.Close()
	for {
		var frame scanFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if f.current() == epoch {
				log.Printf("Scan feed closed: %v", err)
			}
			return
		}
		// A frame read just before Stop must not mutate state afterwards
		if frame.Type == "SCAN" && frame.Code != "" {
			if !f.deliver(epoch, frame.Code) {
				return
			}
		} else if f.current() != epoch {
			return
		}
	}
}

// deliver invokes the handler only while the subscription is current,
// holding the delivery lock so Stop can wait out an in-flight call
func (f *ScanFeed) deliver(epoch uint64, code string) bool {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	if f.current() != epoch {
		return false
	}
	f.handler(code)
	return true
}

func (f *ScanFeed) current() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.epoch
}
