// models/trip.go
package models

// ReferencePoint is one indexed location from the reference file.
type ReferencePoint struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coordinate returns the point's position.
func (p ReferencePoint) Coordinate() Coordinate {
	return Coordinate{Lon: p.Lon, Lat: p.Lat}
}

// TripUploadRow maps the two required columns of a trip upload.
type TripUploadRow struct {
	FromID string `csv:"from_id"`
	ToID   string `csv:"to_id"`
}

// TripRow is one data row of an upload. RowNumber is 1-based.
type TripRow struct {
	RowNumber int
	FromID    string
	ToID      string
}

// ResolvedTrip is a row whose two endpoints were found in the reference index.
type ResolvedTrip struct {
	RowNumber int
	FromID    string
	ToID      string
	From      Coordinate
	To        Coordinate
}

// UnresolvedTrip is a row with at least one unknown endpoint.
type UnresolvedTrip struct {
	RowNumber int    `json:"row" db:"row_num"`
	FromID    string `json:"from_id" db:"from_id"`
	ToID      string `json:"to_id" db:"to_id"`
}
