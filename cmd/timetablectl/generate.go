package main

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/noah-isme/timetable-api/internal/scheduler"
	"github.com/noah-isme/timetable-api/pkg/department"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

type generateOptions struct {
	courses    string
	venues     string
	bookings   string
	department string
	semester   string
	seed       int64
	dailyCap   int
	outDir     string
	pdf        bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Schedule courses into venue slots and write the entries as CSV",
		Long: "Reads courses and venues from CSV, optionally seeds the booking ledger with slots\n" +
			"already taken, and writes one entries file plus the list of unscheduled courses.\n" +
			"Unscheduled courses are reported, not treated as a failure.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.courses, "courses", "", "courses CSV (code,name,level,semester[,instructor,class_size])")
	flags.StringVar(&opts.venues, "venues", "", "venues CSV (name,capacity)")
	flags.StringVar(&opts.bookings, "bookings", "", "already booked slots CSV (venue,day,time[,course_code,level])")
	flags.StringVar(&opts.department, "department", "", "department name or alias")
	flags.StringVar(&opts.semester, "semester", "first", "semester to schedule (first|second)")
	flags.Int64Var(&opts.seed, "seed", 0, "shuffle seed; 0 picks one from the clock")
	flags.IntVar(&opts.dailyCap, "cap", scheduler.DefaultDailyCap, "maximum courses per level per day")
	flags.StringVar(&opts.outDir, "out", "./timetables", "output directory")
	flags.BoolVar(&opts.pdf, "pdf", false, "also render one PDF per level")
	_ = cmd.MarkFlagRequired("courses")
	_ = cmd.MarkFlagRequired("venues")
	_ = cmd.MarkFlagRequired("department")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	semester := strings.ToLower(strings.TrimSpace(opts.semester))
	if semester != "first" && semester != "second" {
		return fmt.Errorf("semester must be first or second, got %q", opts.semester)
	}
	dept := department.Normalize(opts.department)

	courses, err := loadCourses(opts.courses)
	if err != nil {
		return err
	}
	venues, err := loadVenues(opts.venues)
	if err != nil {
		return err
	}
	prior, err := loadBookings(opts.bookings)
	if err != nil {
		return err
	}

	log := root.logger()
	defer log.Sync() //nolint:errcheck

	engine := scheduler.NewEngine(scheduler.Config{DailyCap: opts.dailyCap, Seed: opts.seed}, log)
	outcome, err := engine.Run(scheduler.Request{
		Department: dept,
		Semester:   semester,
		Courses:    courses,
		Venues:     venues,
		Prior:      prior,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	store, err := storage.NewLocalStorage(opts.outDir)
	if err != nil {
		return err
	}
	if err := writeOutcome(store, outcome, opts.pdf); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s, %s semester: %d scheduled, %d unscheduled across %d level(s)\n",
		department.Label(dept), semester, len(outcome.Scheduled), len(outcome.Unscheduled), len(outcome.Results))
	if len(outcome.Skipped) > 0 {
		fmt.Fprintf(out, "skipped (other semester): %s\n", strings.Join(outcome.Skipped, ", "))
	}
	if len(outcome.Unscheduled) > 0 {
		fmt.Fprintf(out, "unscheduled: %s\n", strings.Join(outcome.Unscheduled, ", "))
	}
	fmt.Fprintf(out, "written to %s\n", store.Dir())
	return nil
}

func writeOutcome(store *storage.LocalStorage, outcome *scheduler.Outcome, withPDF bool) error {
	entries := make([]entryRow, 0, outcome.TotalEntries())
	pdf := export.NewPDFExporter()
	for _, result := range outcome.Results {
		dataset := export.Dataset{
			Title:   fmt.Sprintf("%s - Level %s", department.Label(result.Department), result.Level),
			Notes:   []string{fmt.Sprintf("%s semester draft", result.Semester)},
			Headers: []string{"Day", "Time", "Course", "Title", "Venue", "Instructor", "Class size"},
		}
		for _, entry := range result.Entries {
			entries = append(entries, entryRow{
				Department: result.Department,
				Level:      result.Level,
				Semester:   result.Semester,
				CourseCode: entry.CourseCode,
				CourseName: entry.CourseName,
				Venue:      entry.Venue,
				Day:        string(entry.Day),
				Time:       string(entry.Time),
				Instructor: entry.Instructor,
				ClassSize:  entry.ClassSize,
			})
			dataset.Rows = append(dataset.Rows, []string{string(entry.Day), string(entry.Time), entry.CourseCode, entry.CourseName, entry.Venue, entry.Instructor, fmt.Sprintf("%d", entry.ClassSize)})
		}
		if withPDF {
			body, err := pdf.Render(dataset)
			if err != nil {
				return fmt.Errorf("render level %s: %w", result.Level, err)
			}
			if _, err := store.Save(fmt.Sprintf("level-%s.pdf", result.Level), body); err != nil {
				return err
			}
		}
	}

	body, err := gocsv.MarshalBytes(&entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if _, err := store.Save("entries.csv", body); err != nil {
		return err
	}

	unscheduled := make([]unscheduledRow, 0, len(outcome.Unscheduled))
	for _, code := range outcome.Unscheduled {
		unscheduled = append(unscheduled, unscheduledRow{CourseCode: code, Reason: "no free venue slot within the daily cap"})
	}
	body, err = gocsv.MarshalBytes(&unscheduled)
	if err != nil {
		return fmt.Errorf("encode unscheduled: %w", err)
	}
	_, err = store.Save("unscheduled.csv", body)
	return err
}
