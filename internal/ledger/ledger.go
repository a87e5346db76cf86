// Package ledger is the client for the remote stems store. Rows are
// append-only and device-attributed; the client never updates or deletes.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"
	"github.com/openforest/stemsync/internal/record"
	"github.com/openforest/stemsync/internal/version"
)

const (
	v1StemsInsert = "/api/v1/stems"
	v1StemsBulk   = "/api/v1/stems/bulk"
	v1StemsCount  = "/api/v1/stems/count"
	v1Health      = "/api/v1/health"

	headerAPIKey = "X-Api-Key"
)

// Client talks to the stems ledger API.
type Client struct {
	client *req.Client
}

// New creates a ledger client. No automatic retries are configured: a
// failed insert aborts the sync attempt and the next trigger retries it.
func New(baseURL, apiKey string) *Client {
	client := req.C().
		SetBaseURL(baseURL).
		SetUserAgent("StemSync/"+version.Version).
		SetTimeout(30 * time.Second).
		SetCommonErrorResult(&APIError{})

	if apiKey != "" {
		client.SetCommonHeader(headerAPIKey, apiKey)
	}

	return &Client{client: client}
}

// InsertOne inserts a single finalized row.
func (c *Client) InsertOne(ctx context.Context, row *record.StemRow) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(row).
		Post(v1StemsInsert)

	return handleAPIError(resp, err, "stems insert")
}

// InsertMany inserts rows as one transactional batch. All-or-nothing from
// the caller's perspective; retry safety relies on the server deduplicating
// by the client-generated record id.
func (c *Client) InsertMany(ctx context.Context, rows []*record.StemRow) error {
	if len(rows) == 0 {
		return nil
	}

	var apiResp *InsertResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&InsertRequest{Rows: rows}).
		SetSuccessResult(&apiResp).
		Post(v1StemsBulk)

	if err := handleAPIError(resp, err, "stems bulk insert"); err != nil {
		return err
	}

	if apiResp != nil && apiResp.Inserted != len(rows) {
		return fmt.Errorf("stems bulk insert: sent %d rows, server committed %d", len(rows), apiResp.Inserted)
	}
	return nil
}

// TotalCount returns the number of rows in the remote stems table.
func (c *Client) TotalCount(ctx context.Context) (int, error) {
	var apiResp *CountResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp).
		Get(v1StemsCount)

	if err := handleAPIError(resp, err, "stems count"); err != nil {
		return 0, err
	}
	if apiResp == nil {
		return 0, fmt.Errorf("stems count: empty response")
	}
	return apiResp.Count, nil
}

// Health probes the ledger API. Used by the connectivity check.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(v1Health)

	return handleAPIError(resp, err, "health")
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.client.BaseURL
}
