package dataframe

// DropNulls returns a new DataFrame without every row that has a null in any
// column. Rows are never repaired; one missing field drops the whole record.
func (df *DataFrame) DropNulls() *DataFrame {
	if !df.HasNulls() {
		return df.shareAll()
	}

	keep := make([]int, 0, df.Len())
	for row := range df.Len() {
		if !df.rowHasNull(row) {
			keep = append(keep, row)
		}
	}
	return df.Take(keep)
}

// NullCounts returns the number of nulls per column. Columns without nulls
// are omitted.
func (df *DataFrame) NullCounts() map[string]int {
	counts := make(map[string]int)
	for _, name := range df.order {
		if n := df.columns[name].NullCount(); n > 0 {
			counts[name] = n
		}
	}
	return counts
}

// HasNulls reports whether any cell is null.
func (df *DataFrame) HasNulls() bool {
	for _, name := range df.order {
		if df.columns[name].NullCount() > 0 {
			return true
		}
	}
	return false
}

func (df *DataFrame) rowHasNull(row int) bool {
	for _, name := range df.order {
		if df.columns[name].IsNull(row) {
			return true
		}
	}
	return false
}
