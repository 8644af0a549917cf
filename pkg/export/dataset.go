package export

// Dataset defines tabular export content for document renderers.
type Dataset struct {
	Title   string
	Notes   []string
	Headers []string
	Rows    [][]string
}
