package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateWritesEntries(t *testing.T) {
	dir := t.TempDir()
	courses := writeFile(t, dir, "courses.csv", "code,name,level,semester,instructor,class_size\n"+
		"CSC101,Intro to Computing,100,first,,\n"+
		"CSC103,Discrete Structures,100,first,Dr. Ade,90\n"+
		"CSC201,Data Structures,200,first,,\n"+
		"CSC202,Operating Systems,200,second,,\n")
	venues := writeFile(t, dir, "venues.csv", "name,capacity\nLT1,200\nLT2,100\n")
	outDir := filepath.Join(dir, "out")

	output, err := runCLI(t, "generate", "--courses", courses, "--venues", venues, "--department", "cs", "--seed", "11", "--out", outDir, "--pdf")
	require.NoError(t, err)
	assert.Contains(t, output, "3 scheduled, 0 unscheduled across 2 level(s)")
	assert.Contains(t, output, "skipped (other semester): CSC202")

	entries, err := os.ReadFile(filepath.Join(outDir, "entries.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(entries)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "department,level,semester,course_code,course_name,venue,day,time,instructor,class_size", lines[0])
	assert.Contains(t, string(entries), "TBA")
	assert.Contains(t, string(entries), "Dr. Ade,90")

	for _, name := range []string{"level-100.pdf", "level-200.pdf", "unscheduled.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestGenerateHonoursBookedSlots(t *testing.T) {
	dir := t.TempDir()
	courses := writeFile(t, dir, "courses.csv", "code,name,level,semester\nCSC101,Intro,100,first\n")
	venues := writeFile(t, dir, "venues.csv", "name,capacity\nLT1,50\n")
	var booked strings.Builder
	booked.WriteString("venue,day,time\n")
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"} {
		for _, slot := range []string{"08:00-10:00", "10:00-12:00", "12:00-14:00", "14:00-16:00"} {
			booked.WriteString("LT1," + day + "," + slot + "\n")
		}
	}
	bookings := writeFile(t, dir, "bookings.csv", booked.String())
	outDir := filepath.Join(dir, "out")

	output, err := runCLI(t, "generate", "--courses", courses, "--venues", venues, "--bookings", bookings, "--department", "computer science", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, output, "unscheduled: CSC101")

	unscheduled, err := os.ReadFile(filepath.Join(outDir, "unscheduled.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(unscheduled), "CSC101")
}

func TestGenerateRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	courses := writeFile(t, dir, "courses.csv", "code,name,level,semester\nCSC101,Intro,100,first\n")
	venues := writeFile(t, dir, "venues.csv", "name,capacity\nLT1,50\n")
	bookings := writeFile(t, dir, "bookings.csv", "venue,day,time\nLT1,Saturday,08:00-10:00\n")

	_, err := runCLI(t, "generate", "--courses", courses, "--venues", venues, "--department", "cs", "--semester", "summer", "--out", dir)
	assert.ErrorContains(t, err, "semester")

	_, err = runCLI(t, "generate", "--courses", courses, "--venues", venues, "--bookings", bookings, "--department", "cs", "--out", dir)
	assert.ErrorContains(t, err, "unknown day")

	_, err = runCLI(t, "generate", "--venues", venues, "--department", "cs")
	assert.Error(t, err)
}
