package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/verif-rotation/models"
	"github.com/gewnthar/verif-rotation/reference"
	"github.com/gewnthar/verif-rotation/routing"
	"github.com/gewnthar/verif-rotation/tabular"
)

type routeCall struct {
	From, To models.Coordinate
}

// stubRouter answers from a table keyed by origin longitude and records calls.
type stubRouter struct {
	calls  []routeCall
	routes map[float64]models.RouteResult
	fail   map[float64]error
}

func (r *stubRouter) Resolve(_ context.Context, from, to models.Coordinate) (models.RouteResult, error) {
	r.calls = append(r.calls, routeCall{From: from, To: to})
	if err, ok := r.fail[from.Lon]; ok {
		return models.RouteResult{}, err
	}
	if res, ok := r.routes[from.Lon]; ok {
		return res, nil
	}
	return models.RouteResult{
		Geometry:        orb.LineString{from.Point(), to.Point()},
		DistanceMeters:  1,
		DurationSeconds: 1,
	}, nil
}

type recorderFunc func(ctx context.Context, s models.ImportSummary) error

func (f recorderFunc) SaveImport(ctx context.Context, s models.ImportSummary) error { return f(ctx, s) }

func abIndex() *reference.Index {
	return reference.NewIndex([]models.ReferencePoint{
		{ID: "A", Lon: 2.0, Lat: 48.0},
		{ID: "B", Lon: 2.5, Lat: 48.5},
		{ID: "D", Lon: 3.0, Lat: 49.0},
	})
}

func TestRunEndToEndScenario(t *testing.T) {
	router := &stubRouter{routes: map[float64]models.RouteResult{
		2.0: {
			Geometry:        orb.LineString{{2.0, 48.0}, {2.2, 48.3}, {2.5, 48.5}},
			DistanceMeters:  1000,
			DurationSeconds: 120,
		},
	}}
	svc := NewTripImportService(abIndex(), router, nil)

	res, err := svc.Run(context.Background(), "from_id;to_id\nA;B\nA;C\n")
	require.NoError(t, err)

	assert.Equal(t, models.ImportStats{Total: 2, OK: 1, Errors: 1}, res.Stats)
	assert.Equal(t, []models.UnresolvedTrip{{RowNumber: 2, FromID: "A", ToID: "C"}}, res.Errors)
	require.Len(t, res.RoutesGeoJSON.Features, 1)
	assert.Len(t, router.calls, 1, "unresolved rows are never routed")

	f := res.RoutesGeoJSON.Features[0]
	assert.Equal(t, "A", f.Properties["from_id"])
	assert.Equal(t, "B", f.Properties["to_id"])
	assert.Equal(t, 1000.0, f.Properties["distance_m"])
	assert.Equal(t, 120.0, f.Properties["duration_s"])
	assert.NotContains(t, f.Properties, "error")
	assert.NotEmpty(t, res.ImportID)
}

func TestRunResultJSONShape(t *testing.T) {
	svc := NewTripImportService(abIndex(), &stubRouter{}, nil)

	res, err := svc.Run(context.Background(), "from_id,to_id\nA,B\nX,B\n")
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, map[string]any{"total": 2.0, "ok": 1.0, "errors": 1.0}, body["stats"])
	assert.Equal(t, []any{map[string]any{"row": 2.0, "from_id": "X", "to_id": "B"}}, body["errors"])

	fc := body["routes_geojson"].(map[string]any)
	assert.Equal(t, "FeatureCollection", fc["type"])
	features := fc["features"].([]any)
	require.Len(t, features, 1)
	feature := features[0].(map[string]any)
	assert.Equal(t, "Feature", feature["type"])
	assert.Equal(t, "LineString", feature["geometry"].(map[string]any)["type"])
}

func TestRunRoutingFailureDegradesToStraightLine(t *testing.T) {
	router := &stubRouter{fail: map[float64]error{
		2.5: &routing.RoutingFailure{StatusCode: 502, Reason: "OSRM HTTP 502"},
	}}
	svc := NewTripImportService(abIndex(), router, nil)

	res, err := svc.Run(context.Background(), "from_id;to_id\nA;B\nB;D\nD;A\n")
	require.NoError(t, err)

	assert.Equal(t, models.ImportStats{Total: 3, OK: 3, Errors: 0}, res.Stats)
	assert.Empty(t, res.Errors)
	require.Len(t, res.RoutesGeoJSON.Features, 3)
	assert.Len(t, router.calls, 3, "a failure does not stop later rows")

	degraded := res.RoutesGeoJSON.Features[1]
	assert.Equal(t, orb.LineString{{2.5, 48.5}, {3.0, 49.0}}, degraded.Geometry)
	assert.Equal(t, "B", degraded.Properties["from_id"])
	assert.Equal(t, "D", degraded.Properties["to_id"])
	assert.Contains(t, degraded.Properties["error"], "OSRM HTTP 502")
	assert.NotContains(t, degraded.Properties, "distance_m")

	assert.Equal(t, "D", res.RoutesGeoJSON.Features[2].Properties["from_id"])
}

func TestRunPreservesRowOrder(t *testing.T) {
	router := &stubRouter{}
	svc := NewTripImportService(abIndex(), router, nil)

	csv := "from_id;to_id\nD;A\nZ;A\nB;A\nA;D\n;\nA;B\n"
	res, err := svc.Run(context.Background(), csv)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Stats.Total)
	assert.Equal(t, res.Stats.Total, res.Stats.OK+res.Stats.Errors)
	assert.Len(t, res.Errors, res.Stats.Errors)
	assert.Len(t, res.RoutesGeoJSON.Features, res.Stats.OK)

	var order []string
	for _, f := range res.RoutesGeoJSON.Features {
		order = append(order, f.Properties["from_id"].(string)+f.Properties["to_id"].(string))
	}
	assert.Equal(t, []string{"DA", "BA", "AD", "AB"}, order)

	assert.Equal(t, []models.UnresolvedTrip{
		{RowNumber: 2, FromID: "Z", ToID: "A"},
		{RowNumber: 5, FromID: "", ToID: ""},
	}, res.Errors)

	var routedFrom []float64
	for _, c := range router.calls {
		routedFrom = append(routedFrom, c.From.Lon)
	}
	assert.Equal(t, []float64{3.0, 2.5, 2.0, 2.0}, routedFrom)
}

func TestRunTrimsIdentifiers(t *testing.T) {
	svc := NewTripImportService(abIndex(), &stubRouter{}, nil)

	res, err := svc.Run(context.Background(), "from_id,to_id,comment\n  A , B\t,x\n")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.OK)
	assert.Equal(t, "A", res.RoutesGeoJSON.Features[0].Properties["from_id"])
	assert.Equal(t, "B", res.RoutesGeoJSON.Features[0].Properties["to_id"])
}

func TestRunMalformedUploads(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"missing to_id", "from_id;destination\nA;B\n"},
		{"no id columns", "a,b\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := &stubRouter{}
			_, err := NewTripImportService(abIndex(), router, nil).Run(context.Background(), tt.csv)
			assert.ErrorIs(t, err, ErrMalformedUpload)
			assert.Empty(t, router.calls)
		})
	}
}

func TestRunHeaderOnly(t *testing.T) {
	res, err := NewTripImportService(abIndex(), &stubRouter{}, nil).Run(context.Background(), "from_id;to_id\n")
	require.NoError(t, err)

	assert.Equal(t, models.ImportStats{}, res.Stats)
	assert.NotNil(t, res.Errors)
	assert.Empty(t, res.RoutesGeoJSON.Features)
}

func TestRunRowsFromSpreadsheet(t *testing.T) {
	rows := tabular.NewSliceReader([][]string{
		{"to_id", "from_id"},
		{"B", "A"},
		{},
		{"Q", "A"},
	})

	res, err := NewTripImportService(abIndex(), &stubRouter{}, nil).RunRows(context.Background(), "trips.xlsx", rows)
	require.NoError(t, err)

	assert.Equal(t, models.ImportStats{Total: 2, OK: 1, Errors: 1}, res.Stats)
	assert.Equal(t, 2, res.Errors[0].RowNumber)
}

func TestRunRecordsSummary(t *testing.T) {
	var got models.ImportSummary
	recorder := recorderFunc(func(_ context.Context, s models.ImportSummary) error {
		got = s
		return nil
	})
	router := &stubRouter{fail: map[float64]error{3.0: errors.New("boom")}}

	res, err := NewTripImportService(abIndex(), router, recorder).
		RunRows(context.Background(), "trips.csv", tabular.NewDelimitedReader("from_id;to_id\nA;B\nD;A\nA;X\n"))
	require.NoError(t, err)

	assert.Equal(t, res.ImportID, got.ID)
	assert.Equal(t, "trips.csv", got.SourceName)
	assert.Equal(t, 3, got.TotalRows)
	assert.Equal(t, 2, got.OKRows)
	assert.Equal(t, 1, got.ErrorRows)
	assert.Equal(t, 1, got.DegradedRows)
	assert.Equal(t, res.Errors, got.Unresolved)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRunRecorderFailureDoesNotFailImport(t *testing.T) {
	recorder := recorderFunc(func(context.Context, models.ImportSummary) error {
		return errors.New("database is down")
	})

	res, err := NewTripImportService(abIndex(), &stubRouter{}, recorder).Run(context.Background(), "from_id;to_id\nA;B\n")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.OK)
}

func TestClassifyRow(t *testing.T) {
	svc := NewTripImportService(abIndex(), &stubRouter{}, nil)

	tests := []struct {
		name string
		row  models.TripRow
		want OutcomeKind
	}{
		{"both known", models.TripRow{RowNumber: 1, FromID: "A", ToID: "B"}, OutcomeResolved},
		{"unknown origin", models.TripRow{RowNumber: 2, FromID: "Q", ToID: "B"}, OutcomeUnresolvedEndpoint},
		{"unknown destination", models.TripRow{RowNumber: 3, FromID: "A", ToID: "Q"}, OutcomeUnresolvedEndpoint},
		{"blank ids", models.TripRow{RowNumber: 4, FromID: " ", ToID: ""}, OutcomeUnresolvedEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.classifyRow(tt.row)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.row.RowNumber, got.Row.RowNumber)
		})
	}

	resolved := svc.classifyRow(models.TripRow{RowNumber: 1, FromID: "A", ToID: "B"})
	assert.Equal(t, models.Coordinate{Lon: 2.0, Lat: 48.0}, resolved.Trip.From)
	assert.Equal(t, models.Coordinate{Lon: 2.5, Lat: 48.5}, resolved.Trip.To)
}
