// models/api_models.go
package models

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK        bool   `json:"ok"`
	EmpPoints int    `json:"emp_points"`
	Database  string `json:"database,omitempty"` // "up" or "down", omitted when history is disabled
}

// ImportListResponse is the body of GET /imports.
type ImportListResponse struct {
	Imports []ImportSummary `json:"imports"`
}

// ImportErrorsResponse is the body of GET /imports/{importID}/errors.
type ImportErrorsResponse struct {
	ImportID string           `json:"import_id"`
	Errors   []UnresolvedTrip `json:"errors"`
}
