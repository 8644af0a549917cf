package export

import (
	"fmt"
	"reflect"

	"github.com/gocarina/gocsv"
)

// CSVExporter renders slices of csv-tagged structs into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes; records must be a slice of structs or
// struct pointers carrying `csv` tags.
func (e *CSVExporter) Render(records interface{}) ([]byte, error) {
	value := reflect.ValueOf(records)
	if value.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv export expects a slice, got %T", records)
	}
	out, err := gocsv.MarshalBytes(records)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return out, nil
}
