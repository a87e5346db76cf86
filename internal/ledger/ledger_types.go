package ledger

import "github.com/openforest/stemsync/internal/record"

// InsertRequest is the bulk insert payload. The server applies it as a
// single transactional batch: callers never observe partial inserts.
type InsertRequest struct {
	Rows []*record.StemRow `json:"rows"`
}

// InsertResponse acknowledges a committed insert.
type InsertResponse struct {
	Inserted int `json:"inserted"`
}

// CountResponse carries the total number of rows in the stems table.
type CountResponse struct {
	Count int `json:"count"`
}
