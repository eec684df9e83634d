// reference/index.go
package reference

import (
	"context"
	"fmt"
	"log"

	"github.com/gewnthar/verif-rotation/config"
	"github.com/gewnthar/verif-rotation/models"
	"github.com/gewnthar/verif-rotation/tabular"
	"github.com/gewnthar/verif-rotation/utils"
)

// Columns names the reference file headers holding the id and coordinates.
type Columns struct {
	ID  string
	Lat string
	Lon string
}

// ColumnsFrom extracts the column names from the reference configuration.
func ColumnsFrom(cfg config.ReferenceConfig) Columns {
	return Columns{ID: cfg.IDColumn, Lat: cfg.LatColumn, Lon: cfg.LonColumn}
}

type referenceRow struct {
	ID  string `csv:"id"`
	Lat string `csv:"lat"`
	Lon string `csv:"lon"`
}

// Index maps a normalized location id to its reference point.
// It is never modified after construction and is safe for concurrent reads.
type Index struct {
	points map[string]models.ReferencePoint
}

// NewIndex builds an index from points. Points with an empty id are ignored;
// for a repeated id the last point wins.
func NewIndex(points []models.ReferencePoint) *Index {
	idx := &Index{points: make(map[string]models.ReferencePoint, len(points))}
	for _, p := range points {
		p.ID = utils.NormalizeID(p.ID)
		if p.ID == "" {
			continue
		}
		idx.points[p.ID] = p
	}
	return idx
}

// Load reads the reference file at src (path or http(s) URL) and indexes
// every row with a non-empty id and two finite coordinates. Other rows are
// skipped. Any error here means the service has no usable reference data.
func Load(ctx context.Context, src string, cols Columns) (*Index, error) {
	text, err := readSource(ctx, src)
	if err != nil {
		return nil, err
	}

	idx, err := Parse(text, cols)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference file %s: %w", src, err)
	}
	return idx, nil
}

// Parse builds an index from the text of a reference file.
func Parse(text string, cols Columns) (*Index, error) {
	rows, err := tabular.Decode[referenceRow](tabular.NewDelimitedReader(text), tabular.DecodeOptions{
		HeaderAliases: map[string]string{cols.ID: "id", cols.Lat: "lat", cols.Lon: "lon"},
		Required:      []string{"id", "lat", "lon"},
	})
	if err != nil {
		return nil, err
	}

	points := make([]models.ReferencePoint, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		p, ok := toPoint(row)
		if !ok {
			skipped++
			continue
		}
		points = append(points, p)
	}

	idx := NewIndex(points)
	if dup := len(points) - idx.Len(); dup > 0 {
		log.Printf("WARN Reference: %d rows repeated an earlier id and replaced it", dup)
	}
	log.Printf("Reference: loaded %d points (skipped %d rows)", idx.Len(), skipped)
	return idx, nil
}

func toPoint(row referenceRow) (models.ReferencePoint, bool) {
	id := utils.NormalizeID(row.ID)
	if id == "" {
		return models.ReferencePoint{}, false
	}
	lat, ok := utils.NormalizeNumberFr(row.Lat)
	if !ok {
		return models.ReferencePoint{}, false
	}
	lon, ok := utils.NormalizeNumberFr(row.Lon)
	if !ok {
		return models.ReferencePoint{}, false
	}
	return models.ReferencePoint{ID: id, Lat: lat, Lon: lon}, true
}

// Lookup returns the point registered under id. Blank ids never match.
func (idx *Index) Lookup(id string) (models.ReferencePoint, bool) {
	id = utils.NormalizeID(id)
	if id == "" {
		return models.ReferencePoint{}, false
	}
	p, ok := idx.points[id]
	return p, ok
}

// Len is the number of indexed points.
func (idx *Index) Len() int {
	return len(idx.points)
}
