// Command timetablectl runs the timetable scheduler offline against CSV files.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
