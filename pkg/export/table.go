package export

// Table defines tabular export content such as a subject grade sheet.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}
