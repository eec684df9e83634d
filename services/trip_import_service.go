// services/trip_import_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/gewnthar/verif-rotation/metrics"
	"github.com/gewnthar/verif-rotation/models"
	"github.com/gewnthar/verif-rotation/tabular"
	"github.com/gewnthar/verif-rotation/utils"
)

// ErrMalformedUpload wraps every upload that cannot be processed at all
// (empty file, missing from_id/to_id columns, unreadable rows).
var ErrMalformedUpload = errors.New("malformed upload")

var requiredTripColumns = []string{"from_id", "to_id"}

// ReferenceLookup resolves a location id to its coordinates.
type ReferenceLookup interface {
	Lookup(id string) (models.ReferencePoint, bool)
}

// RouteResolver fetches one driving route between two points.
type RouteResolver interface {
	Resolve(ctx context.Context, from, to models.Coordinate) (models.RouteResult, error)
}

// ImportRecorder persists the summary of a finished import.
type ImportRecorder interface {
	SaveImport(ctx context.Context, summary models.ImportSummary) error
}

// OutcomeKind tags what happened to one trip row.
type OutcomeKind int

const (
	OutcomeResolved OutcomeKind = iota
	OutcomeUnresolvedEndpoint
	OutcomeRoutingDegraded
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResolved:
		return metrics.OutcomeResolved
	case OutcomeUnresolvedEndpoint:
		return metrics.OutcomeUnresolved
	case OutcomeRoutingDegraded:
		return metrics.OutcomeDegraded
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// RowOutcome is the result of one row. Trip is set unless Kind is
// OutcomeUnresolvedEndpoint; Route only for OutcomeResolved; Err only for
// OutcomeRoutingDegraded.
type RowOutcome struct {
	Kind  OutcomeKind
	Row   models.TripRow
	Trip  models.ResolvedTrip
	Route models.RouteResult
	Err   error
}

// TripImportService turns an uploaded list of trips into routed GeoJSON.
type TripImportService struct {
	index    ReferenceLookup
	router   RouteResolver
	recorder ImportRecorder
}

// NewTripImportService wires the pipeline. recorder may be nil.
func NewTripImportService(index ReferenceLookup, router RouteResolver, recorder ImportRecorder) *TripImportService {
	return &TripImportService{index: index, router: router, recorder: recorder}
}

// Run processes CSV text, detecting its delimiter from the first line.
func (s *TripImportService) Run(ctx context.Context, csvText string) (*models.TripImportResult, error) {
	return s.RunRows(ctx, "", tabular.NewDelimitedReader(csvText))
}

// RunRows processes an already opened tabular source. Rows are handled one
// at a time in input order; a failing row never stops the following ones.
func (s *TripImportService) RunRows(ctx context.Context, source string, rows tabular.RowReader) (*models.TripImportResult, error) {
	trips, err := decodeTrips(rows)
	if err != nil {
		return nil, err
	}
	log.Printf("Service: importing %d trip rows from %q", len(trips), source)

	// Endpoint resolution for the whole batch comes first, then routing.
	outcomes := make([]RowOutcome, 0, len(trips))
	for _, row := range trips {
		outcomes = append(outcomes, s.classifyRow(row))
	}
	for i := range outcomes {
		if outcomes[i].Kind == OutcomeResolved {
			outcomes[i] = s.routeTrip(ctx, outcomes[i])
		}
	}

	result, degraded := assemble(outcomes)
	result.ImportID = uuid.NewString()

	metrics.Imports.Inc()
	for _, o := range outcomes {
		metrics.ImportRows.WithLabelValues(o.Kind.String()).Inc()
	}

	log.Printf("Service: import %s done: total=%d ok=%d errors=%d degraded=%d",
		result.ImportID, result.Stats.Total, result.Stats.OK, result.Stats.Errors, degraded)

	if s.recorder != nil {
		summary := models.ImportSummary{
			ID:           result.ImportID,
			SourceName:   source,
			TotalRows:    result.Stats.Total,
			OKRows:       result.Stats.OK,
			ErrorRows:    result.Stats.Errors,
			DegradedRows: degraded,
			CreatedAt:    time.Now().UTC(),
			Unresolved:   result.Errors,
		}
		// The import already happened; losing its trace is not worth failing the response.
		if err := s.recorder.SaveImport(context.WithoutCancel(ctx), summary); err != nil {
			log.Printf("WARN TripImportService: failed to record import %s: %v", result.ImportID, err)
		}
	}
	return result, nil
}

func decodeTrips(rows tabular.RowReader) ([]models.TripRow, error) {
	decoded, err := tabular.Decode[models.TripUploadRow](rows, tabular.DecodeOptions{Required: requiredTripColumns})
	if err != nil {
		var mce *tabular.MissingColumnsError
		switch {
		case errors.Is(err, tabular.ErrEmptyInput):
			return nil, fmt.Errorf("%w: file is empty", ErrMalformedUpload)
		case errors.As(err, &mce):
			return nil, fmt.Errorf("%w: %v", ErrMalformedUpload, mce)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedUpload, err)
	}

	trips := make([]models.TripRow, len(decoded))
	for i, r := range decoded {
		trips[i] = models.TripRow{RowNumber: i + 1, FromID: r.FromID, ToID: r.ToID}
	}
	return trips, nil
}

// classifyRow looks both endpoints up. The returned outcome is either
// OutcomeUnresolvedEndpoint or OutcomeResolved with Trip filled in.
func (s *TripImportService) classifyRow(row models.TripRow) RowOutcome {
	row.FromID = utils.NormalizeID(row.FromID)
	row.ToID = utils.NormalizeID(row.ToID)

	from, okFrom := s.index.Lookup(row.FromID)
	to, okTo := s.index.Lookup(row.ToID)
	if !okFrom || !okTo {
		return RowOutcome{Kind: OutcomeUnresolvedEndpoint, Row: row}
	}

	return RowOutcome{
		Kind: OutcomeResolved,
		Row:  row,
		Trip: models.ResolvedTrip{
			RowNumber: row.RowNumber,
			FromID:    row.FromID,
			ToID:      row.ToID,
			From:      from.Coordinate(),
			To:        to.Coordinate(),
		},
	}
}

// routeTrip resolves the route of a resolved row, degrading on failure.
func (s *TripImportService) routeTrip(ctx context.Context, o RowOutcome) RowOutcome {
	route, err := s.router.Resolve(ctx, o.Trip.From, o.Trip.To)
	if err != nil {
		log.Printf("WARN TripImportService: row %d (%s -> %s) falls back to a straight line: %v",
			o.Row.RowNumber, o.Trip.FromID, o.Trip.ToID, err)
		o.Kind = OutcomeRoutingDegraded
		o.Err = err
		return o
	}
	o.Route = route
	return o
}

func assemble(outcomes []RowOutcome) (*models.TripImportResult, int) {
	result := &models.TripImportResult{
		Errors:        []models.UnresolvedTrip{},
		RoutesGeoJSON: geojson.NewFeatureCollection(),
	}
	degraded := 0

	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeUnresolvedEndpoint:
			result.Errors = append(result.Errors, models.UnresolvedTrip{
				RowNumber: o.Row.RowNumber,
				FromID:    o.Row.FromID,
				ToID:      o.Row.ToID,
			})
		case OutcomeRoutingDegraded:
			degraded++
			fallthrough
		case OutcomeResolved:
			result.RoutesGeoJSON.Append(featureFor(o))
		}
	}

	result.Stats = models.ImportStats{
		Total:  len(outcomes),
		OK:     len(result.RoutesGeoJSON.Features),
		Errors: len(result.Errors),
	}
	return result, degraded
}

// featureFor builds the map feature of a resolved row: the engine's route,
// or a straight line between the endpoints carrying the failure text.
func featureFor(o RowOutcome) *geojson.Feature {
	if o.Kind == OutcomeRoutingDegraded {
		f := geojson.NewFeature(orb.LineString{o.Trip.From.Point(), o.Trip.To.Point()})
		f.Properties["from_id"] = o.Trip.FromID
		f.Properties["to_id"] = o.Trip.ToID
		f.Properties["error"] = o.Err.Error()
		return f
	}

	f := geojson.NewFeature(o.Route.Geometry)
	f.Properties["from_id"] = o.Trip.FromID
	f.Properties["to_id"] = o.Trip.ToID
	f.Properties["distance_m"] = o.Route.DistanceMeters
	f.Properties["duration_s"] = o.Route.DurationSeconds
	return f
}
