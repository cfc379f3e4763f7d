// Package measure accumulates per-object shape measurements into a table.
//
// A Table is an append-only value: AppendObject never modifies the table it
// is given and returns a new one with exactly one more row. Callers rebind
// their reference to the result, as in
//
//	table, err = measure.AppendObject(table, sampleID, objectID, m, h, w, ar)
//
// The measurements themselves (area, eccentricity, rugosity, ...) are computed
// upstream; this package only validates that every required key is present
// and lays the values out in the table's declared column order.
package measure

import (
	"errors"
	"fmt"
	"strconv"
)

// Measurement keys required in the mapping passed to AppendObject.
const (
	KeyArea            = "Area"
	KeyEccentricity    = "Eccentricity"
	KeyPerimeter       = "Perimeter"
	KeyMajorAxisLength = "MajorAxisLength"
	KeyMinorAxisLength = "MinorAxisLength"
	KeyRugosity        = "Rugosity"
)

// RequiredKeys lists the measurement keys in the order they are looked up.
var RequiredKeys = []string{
	KeyArea,
	KeyEccentricity,
	KeyPerimeter,
	KeyMajorAxisLength,
	KeyMinorAxisLength,
	KeyRugosity,
}

// DefaultColumns is the schema used by NewTable.
var DefaultColumns = []string{
	"SampleID",
	"ObjectID",
	KeyArea,
	KeyEccentricity,
	KeyPerimeter,
	KeyMajorAxisLength,
	KeyMinorAxisLength,
	KeyRugosity,
	"Height",
	"Width",
	"AspectRatio",
}

// numColumns is the number of values in every Record.
const numColumns = 11

var (
	// ErrMissingMeasurement matches every *MissingKeyError via errors.Is.
	ErrMissingMeasurement = errors.New("missing measurement")

	// ErrColumnCount is returned when a schema does not declare one column
	// per Record value.
	ErrColumnCount = errors.New("column count mismatch")
)

// MissingKeyError reports a required measurement absent from the mapping.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing measurement %q", e.Key)
}

// Is reports whether target is ErrMissingMeasurement.
func (e *MissingKeyError) Is(target error) bool {
	return target == ErrMissingMeasurement
}

// Record is one object's measurement row.
type Record struct {
	SampleID        string  `json:"sample_id"`
	ObjectID        int     `json:"object_id"`
	Area            float64 `json:"area"`
	Eccentricity    float64 `json:"eccentricity"`
	Perimeter       float64 `json:"perimeter"`
	MajorAxisLength float64 `json:"major_axis_length"`
	MinorAxisLength float64 `json:"minor_axis_length"`
	Rugosity        float64 `json:"rugosity"`
	Height          float64 `json:"height"`
	Width           float64 `json:"width"`
	AspectRatio     float64 `json:"aspect_ratio"`
}

// Values returns the record's fields formatted as text, in positional order.
func (r Record) Values() []string {
	return []string{
		r.SampleID,
		strconv.Itoa(r.ObjectID),
		formatFloat(r.Area),
		formatFloat(r.Eccentricity),
		formatFloat(r.Perimeter),
		formatFloat(r.MajorAxisLength),
		formatFloat(r.MinorAxisLength),
		formatFloat(r.Rugosity),
		formatFloat(r.Height),
		formatFloat(r.Width),
		formatFloat(r.AspectRatio),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table is an ordered, append-only collection of Records under a declared
// schema. The zero value is not usable; build one with NewTable or
// NewTableWithColumns.
type Table struct {
	columns []string
	records []Record
}

// NewTable returns an empty table with DefaultColumns.
func NewTable() Table {
	t, _ := NewTableWithColumns(DefaultColumns)
	return t
}

// NewTableWithColumns returns an empty table with a caller-declared schema.
// Values are placed positionally, so the names may differ from the defaults
// but there must be exactly one column per Record value.
func NewTableWithColumns(columns []string) (Table, error) {
	if len(columns) != numColumns {
		return Table{}, fmt.Errorf("%w: got %d columns, want %d", ErrColumnCount, len(columns), numColumns)
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{columns: cols}, nil
}

// FromRecords rebuilds a table from a schema and previously stored rows.
func FromRecords(columns []string, records []Record) (Table, error) {
	t, err := NewTableWithColumns(columns)
	if err != nil {
		return Table{}, err
	}
	t.records = make([]Record, len(records))
	copy(t.records, records)
	return t, nil
}

// Columns returns a copy of the declared schema.
func (t Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.records)
}

// Records returns a copy of the rows.
func (t Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Rows returns every row as text in declared column order.
func (t Table) Rows() [][]string {
	rows := make([][]string, len(t.records))
	for i, r := range t.records {
		rows[i] = r.Values()
	}
	return rows
}

// AppendObject returns a new table equal to t plus one row built from the
// object's measurements and its bounding-box height, width and aspect ratio.
//
// It fails with a *MissingKeyError if any of RequiredKeys is absent from
// measures. Values are not range checked. t is never modified, and the
// returned table does not share storage with it.
func AppendObject(t Table, sampleID string, objectID int, measures map[string]float64, height, width, aspectRatio float64) (Table, error) {
	if len(t.columns) != numColumns {
		return Table{}, fmt.Errorf("%w: got %d columns, want %d", ErrColumnCount, len(t.columns), numColumns)
	}

	vals := make([]float64, len(RequiredKeys))
	for i, key := range RequiredKeys {
		v, ok := measures[key]
		if !ok {
			return Table{}, &MissingKeyError{Key: key}
		}
		vals[i] = v
	}

	rec := Record{
		SampleID:        sampleID,
		ObjectID:        objectID,
		Area:            vals[0],
		Eccentricity:    vals[1],
		Perimeter:       vals[2],
		MajorAxisLength: vals[3],
		MinorAxisLength: vals[4],
		Rugosity:        vals[5],
		Height:          height,
		Width:           width,
		AspectRatio:     aspectRatio,
	}

	columns := make([]string, len(t.columns))
	copy(columns, t.columns)

	records := make([]Record, len(t.records), len(t.records)+1)
	copy(records, t.records)
	records = append(records, rec)

	return Table{columns: columns, records: records}, nil
}
