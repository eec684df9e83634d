// models/import.go
package models

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// ImportStats always satisfies Total == OK + Errors.
type ImportStats struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Errors int `json:"errors"`
}

// TripImportResult is the response body of a trip import.
// RoutesGeoJSON holds one feature per resolved row, in row order.
type TripImportResult struct {
	ImportID      string                     `json:"import_id"`
	Stats         ImportStats                `json:"stats"`
	Errors        []UnresolvedTrip           `json:"errors"`
	RoutesGeoJSON *geojson.FeatureCollection `json:"routes_geojson"`
}

// ImportSummary is the persisted trace of one import.
type ImportSummary struct {
	ID           string    `json:"id" db:"id"`
	SourceName   string    `json:"source_name" db:"source_name"`
	TotalRows    int       `json:"total_rows" db:"total_rows"`
	OKRows       int       `json:"ok_rows" db:"ok_rows"`
	ErrorRows    int       `json:"error_rows" db:"error_rows"`
	DegradedRows int       `json:"degraded_rows" db:"degraded_rows"` // resolved rows whose routing failed
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Unresolved []UnresolvedTrip `json:"-"`
}
