package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/timetable-api/internal/scheduler"
)

type courseRow struct {
	Code       string `csv:"code"`
	Name       string `csv:"name"`
	Level      string `csv:"level"`
	Semester   string `csv:"semester"`
	Instructor string `csv:"instructor,omitempty"`
	ClassSize  int    `csv:"class_size,omitempty"`
}

type venueRow struct {
	Name     string `csv:"name"`
	Capacity int    `csv:"capacity"`
}

type bookingRow struct {
	Venue      string `csv:"venue"`
	Day        string `csv:"day"`
	Time       string `csv:"time"`
	CourseCode string `csv:"course_code,omitempty"`
	Level      string `csv:"level,omitempty"`
}

type entryRow struct {
	Department string `csv:"department"`
	Level      string `csv:"level"`
	Semester   string `csv:"semester"`
	CourseCode string `csv:"course_code"`
	CourseName string `csv:"course_name"`
	Venue      string `csv:"venue"`
	Day        string `csv:"day"`
	Time       string `csv:"time"`
	Instructor string `csv:"instructor"`
	ClassSize  int    `csv:"class_size"`
}

type unscheduledRow struct {
	CourseCode string `csv:"course_code"`
	Reason     string `csv:"reason"`
}

func readCSV(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck
	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadCourses(path string) ([]scheduler.Course, error) {
	var rows []*courseRow
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}
	courses := make([]scheduler.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, scheduler.Course{
			Code:       row.Code,
			Name:       row.Name,
			Level:      row.Level,
			Semester:   row.Semester,
			Instructor: row.Instructor,
			ClassSize:  row.ClassSize,
		})
	}
	return courses, nil
}

func loadVenues(path string) ([]scheduler.Venue, error) {
	var rows []*venueRow
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}
	venues := make([]scheduler.Venue, 0, len(rows))
	for _, row := range rows {
		venues = append(venues, scheduler.Venue{Name: row.Name, Capacity: row.Capacity})
	}
	return venues, nil
}

func loadBookings(path string) ([]scheduler.Booking, error) {
	if path == "" {
		return nil, nil
	}
	var rows []*bookingRow
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}
	bookings := make([]scheduler.Booking, 0, len(rows))
	for i, row := range rows {
		day, ok := scheduler.ParseDay(row.Day)
		if !ok {
			return nil, fmt.Errorf("%s row %d: unknown day %q", path, i+2, row.Day)
		}
		at, ok := scheduler.ParseTimeRange(row.Time)
		if !ok {
			return nil, fmt.Errorf("%s row %d: unknown time slot %q", path, i+2, row.Time)
		}
		bookings = append(bookings, scheduler.Booking{Venue: row.Venue, Day: day, Time: at, CourseCode: row.CourseCode, Level: row.Level})
	}
	return bookings, nil
}
