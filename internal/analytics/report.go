package analytics

import "github.com/paveg/spendscope/internal/dataframe"

// TableSummary describes one input table.
type TableSummary struct {
	Name       string
	Raw        *dataframe.DataFrame // as loaded, before cleaning
	RowsBefore int
	RowsAfter  int
}

// Report is the result of one run. It owns every frame it references;
// call Release when done.
type Report struct {
	RunID       string
	AgeMin      int64
	AgeMax      int64
	TopN        int
	PreviewRows int

	SumColumn   string // per-category sum in CategoryTotals
	AgeSum      string // per-category sum in AgeGroupTotals and Shares
	ShareColumn string // percentage column in Shares and Top

	Tables     []TableSummary // users, purchases, products
	JoinedRows int

	CategoryTotals *dataframe.DataFrame
	AgeGroupTotals *dataframe.DataFrame
	Shares         *dataframe.DataFrame
	Top            *dataframe.DataFrame
}

// Table returns the summary of the named input table.
func (r *Report) Table(name string) (TableSummary, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSummary{}, false
}

// Release releases every frame held by the report.
func (r *Report) Release() {
	for _, t := range r.Tables {
		if t.Raw != nil {
			t.Raw.Release()
		}
	}
	for _, df := range []*dataframe.DataFrame{r.CategoryTotals, r.AgeGroupTotals, r.Shares, r.Top} {
		if df != nil {
			df.Release()
		}
	}
}
