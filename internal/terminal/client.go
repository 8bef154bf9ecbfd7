package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// Scan entity types
const (
	TypeItem     = "item"
	TypeLocation = "location"
)

// ScanResult is a resolved scan: exactly one of Item/Location is set
type ScanResult struct {
	Type     string
	Item     *models.Product
	Location *models.StockLocation
}

// Client talks to the warehouse service with a bearer credential
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new warehouse API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a request and decodes the response into out (unless nil).
// Non-2xx responses become *APIError with the server's message field.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Status: resp.StatusCode, Message: errBody.Message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// raw fetches a document body, returning nil content on 204
func (c *Client) raw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return nil, &APIError{Status: resp.StatusCode, Message: errBody.Message}
	}
	return io.ReadAll(resp.Body)
}

// ResolveScan looks up a raw code. A blank code is rejected locally and
// never reaches the service.
func (c *Client) ResolveScan(ctx context.Context, code string) (*ScanResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	var resp struct {
		Type   string          `json:"type"`
		Entity json.RawMessage `json:"entity"`
	}
	err := c.do(ctx, http.MethodGet, "/warehouse/scan/resolve?code="+url.QueryEscape(code), nil, &resp)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	result := &ScanResult{Type: resp.Type}
	switch resp.Type {
	case TypeItem:
		result.Item = &models.Product{}
		err = json.Unmarshal(resp.Entity, result.Item)
	case TypeLocation:
		result.Location = &models.StockLocation{}
		err = json.Unmarshal(resp.Entity, result.Location)
	default:
		return nil, fmt.Errorf("unknown entity type %q", resp.Type)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountPayload is a cycle-count save
type CountPayload struct {
	OpID       string  `json:"opId"`
	LocationID int64   `json:"locationId"`
	ItemID     int64   `json:"itemId"`
	Qty        float64 `json:"qty"`
}

// SaveCount submits a cycle-count result
func (c *Client) SaveCount(ctx context.Context, p CountPayload) error {
	return c.do(ctx, http.MethodPost, "/warehouse/inventory/count", p, nil)
}

// ReceiveLine is one accepted quantity
type ReceiveLine struct {
	ItemID int64   `json:"itemId"`
	Qty    float64 `json:"qty"`
}

// AdHocReceivePayload is a receipt without a source order
type AdHocReceivePayload struct {
	OpID       string        `json:"opId"`
	LocationID int64         `json:"locationId"`
	Lines      []ReceiveLine `json:"lines"`
}

// ReceiveAdHoc submits an ad hoc receipt
func (c *Client) ReceiveAdHoc(ctx context.Context, p AdHocReceivePayload) error {
	return c.do(ctx, http.MethodPost, "/warehouse/receiving", p, nil)
}

// ListOpenOrders fetches open purchase orders with their lines
func (c *Client) ListOpenOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	if err := c.do(ctx, http.MethodGet, "/warehouse/receiving/open-pos", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ConfirmLine is one accepted quantity against an order line
type ConfirmLine struct {
	ProductID int64   `json:"productId"`
	Qty       float64 `json:"qty"`
}

// ConfirmOrderReceipt submits accepted quantities and returns the updated order
func (c *Client) ConfirmOrderReceipt(ctx context.Context, orderID int64, opID string, lines []ConfirmLine) (*models.PurchaseOrder, error) {
	body := struct {
		OpID  string        `json:"opId"`
		Lines []ConfirmLine `json:"lines"`
	}{OpID: opID, Lines: lines}

	var resp struct {
		Order models.PurchaseOrder `json:"order"`
	}
	path := fmt.Sprintf("/warehouse/receiving/%d/confirm", orderID)
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// MovementPayload is the shared from→to operation shape
type MovementPayload struct {
	OpID           string  `json:"opId"`
	FromLocationID int64   `json:"fromLocationId"`
	ToLocationID   *int64  `json:"toLocationId,omitempty"`
	ItemID         int64   `json:"itemId"`
	Qty            float64 `json:"qty"`
}

// ExecuteMove submits an inter-location move
func (c *Client) ExecuteMove(ctx context.Context, p MovementPayload) error {
	return c.do(ctx, http.MethodPost, "/warehouse/move", p, nil)
}

// ExecutePutaway submits a putaway from staging to storage
func (c *Client) ExecutePutaway(ctx context.Context, p MovementPayload) error {
	return c.do(ctx, http.MethodPost, "/warehouse/putaway", p, nil)
}

// ExecuteReplenish submits a replenishment move
func (c *Client) ExecuteReplenish(ctx context.Context, p MovementPayload) error {
	return c.do(ctx, http.MethodPost, "/warehouse/replen/execute", p, nil)
}

// ExecutePick submits a pick (no destination)
func (c *Client) ExecutePick(ctx context.Context, p MovementPayload) error {
	return c.do(ctx, http.MethodPost, "/warehouse/pick", p, nil)
}

// StartBinAudit opens an audit session and returns its id
func (c *Client) StartBinAudit(ctx context.Context) (string, error) {
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/warehouse/bin-audit/start", struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// ExpectedItem is one expected quantity at an audited location
type ExpectedItem struct {
	Item        models.Product `json:"item"`
	ExpectedQty float64        `json:"expectedQty"`
}

// ExpectedStock is the audit snapshot for one location
type ExpectedStock struct {
	Location models.StockLocation `json:"location"`
	Items    []ExpectedItem       `json:"items"`
}

// BinAuditExpected fetches expected quantities at a location
func (c *Client) BinAuditExpected(ctx context.Context, locationID int64) (*ExpectedStock, error) {
	var resp ExpectedStock
	path := fmt.Sprintf("/warehouse/bin-audit/expected?locationId=%d", locationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DiscrepancyLine is one reported expected-vs-counted difference
type DiscrepancyLine struct {
	ItemID      int64   `json:"itemId"`
	ExpectedQty float64 `json:"expectedQty"`
	CountedQty  float64 `json:"countedQty"`
}

// binAuditBody is the shared confirm/discrepancy request shape
type binAuditBody struct {
	OpID       string            `json:"opId"`
	LocationID int64             `json:"locationId"`
	Lines      []DiscrepancyLine `json:"lines,omitempty"`
}

// ConfirmBinAudit finalizes a location visit with no discrepancies
func (c *Client) ConfirmBinAudit(ctx context.Context, sessionID string, opID string, locationID int64) error {
	path := fmt.Sprintf("/warehouse/bin-audit/%s/confirm", sessionID)
	return c.do(ctx, http.MethodPost, path, binAuditBody{OpID: opID, LocationID: locationID}, nil)
}

// ReportBinAuditDiscrepancy submits counted-vs-expected differences
func (c *Client) ReportBinAuditDiscrepancy(ctx context.Context, sessionID string, opID string, locationID int64, lines []DiscrepancyLine) error {
	path := fmt.Sprintf("/warehouse/bin-audit/%s/discrepancy", sessionID)
	return c.do(ctx, http.MethodPost, path, binAuditBody{OpID: opID, LocationID: locationID, Lines: lines}, nil)
}

// FinishBinAudit closes the session
func (c *Client) FinishBinAudit(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/warehouse/bin-audit/%s/finish", sessionID)
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

// GetOrgProfile fetches the organization requisites.
// Returns (nil, nil) when no profile was ever saved.
func (c *Client) GetOrgProfile(ctx context.Context) (*models.OrgProfile, error) {
	var resp struct {
		Profile models.OrgProfile `json:"profile"`
	}
	err := c.do(ctx, http.MethodGet, "/settings/org-profile", nil, &resp)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		if IsStatus(err, http.StatusForbidden) {
			return nil, ErrPrintAccess
		}
		return nil, err
	}
	return &resp.Profile, nil
}

// SaveOrgProfile persists the organization requisites
func (c *Client) SaveOrgProfile(ctx context.Context, profile *models.OrgProfile) error {
	var resp struct {
		Profile models.OrgProfile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodPut, "/settings/org-profile", profile, &resp); err != nil {
		if IsStatus(err, http.StatusForbidden) {
			return ErrPrintAccess
		}
		return err
	}
	*profile = resp.Profile
	return nil
}

// FetchReceiveAct downloads the rendered discrepancy act.
// Returns (nil, nil) when there is nothing to print.
func (c *Client) FetchReceiveAct(ctx context.Context, orderID int64) ([]byte, error) {
	return c.raw(ctx, fmt.Sprintf("/purchase-orders/%d/print-receive-act", orderID))
}
