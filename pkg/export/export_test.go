package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entryRow struct {
	Day    string `csv:"day"`
	Time   string `csv:"time"`
	Course string `csv:"course_code"`
}

func TestCSVExporterRendersTaggedRows(t *testing.T) {
	out, err := NewCSVExporter().Render([]entryRow{
		{Day: "Monday", Time: "08:00-10:00", Course: "CSC101"},
		{Day: "Tuesday", Time: "10:00-12:00", Course: "CSC102"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "day,time,course_code", lines[0])
	assert.Equal(t, "Monday,08:00-10:00,CSC101", lines[1])
}

func TestCSVExporterRejectsNonSlice(t *testing.T) {
	_, err := NewCSVExporter().Render(entryRow{})
	assert.Error(t, err)
}

func TestPDFExporterRendersDocument(t *testing.T) {
	rows := make([][]string, 0, 60)
	for i := 0; i < 60; i++ {
		rows = append(rows, []string{"Monday", "08:00-10:00", "CSC101"})
	}
	out, err := NewPDFExporter().Render(Dataset{
		Title:   "Computer Science 100 Level",
		Notes:   []string{"First semester"},
		Headers: []string{"Day", "Time", "Course"},
		Rows:    rows,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}
