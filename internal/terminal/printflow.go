package terminal

import (
	"context"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// ProfileCollector gathers the organization requisites from the operator
// when none are saved yet. Returning an error aborts the flow.
type ProfileCollector func() (*models.OrgProfile, error)

// PrintFlow produces the discrepancy act for a short-received order
type PrintFlow struct {
	client *Client
}

// NewPrintFlow creates the discrepancy-act print flow
func NewPrintFlow(client *Client) *PrintFlow {
	return &PrintFlow{client: client}
}

// Run executes the three-step flow: check the org profile (403 is a hard
// stop), collect and save it if missing, then fetch the rendered act.
// A nil document with a nil error means there was nothing to print.
func (p *PrintFlow) Run(ctx context.Context, orderID int64, collect ProfileCollector) ([]byte, error) {
	// 1. Does a profile exist?
	profile, err := p.client.GetOrgProfile(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Collect and persist requisites when missing
	if profile == nil {
		if collect == nil {
			return nil, &ValidationError{Field: "profile", Reason: "organization profile is required"}
		}
		fresh, err := collect()
		if err != nil {
			return nil, err
		}
		if msg := fresh.Validate(); msg != "" {
			return nil, &ValidationError{Field: "profile", Reason: msg}
		}
		if err := p.client.SaveOrgProfile(ctx, fresh); err != nil {
			return nil, err
		}
	}

	// 3. Fetch the rendered document; no content is a successful no-op
	return p.client.FetchReceiveAct(ctx, orderID)
}
