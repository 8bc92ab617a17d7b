package dataframe

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	minCellWidth = 3
	maxCellWidth = 20
	ellipsis     = "..."
)

// Show writes the first n rows as a bordered text grid, right-aligning cells
// and truncating long ones to 20 characters. When the frame has more than n
// rows a footer says so. n <= 0 shows every row.
func (df *DataFrame) Show(w io.Writer, n int) error {
	_, err := io.WriteString(w, df.Format(n))
	return err
}

// Format renders what Show writes.
func (df *DataFrame) Format(n int) string {
	total := df.Len()
	if n <= 0 || n > total {
		n = total
	}

	cells := make([][]string, n+1)
	cells[0] = df.Columns()
	for row := range n {
		line := make([]string, df.Width())
		for c, name := range df.order {
			line[c] = truncateCell(df.columns[name].GetAsString(row))
		}
		cells[row+1] = line
	}

	widths := make([]int, df.Width())
	for c := range widths {
		widths[c] = minCellWidth
		for _, line := range cells {
			if l := utf8.RuneCountInString(line[c]); l > widths[c] {
				widths[c] = l
			}
		}
	}

	var b strings.Builder
	sep := separator(widths)
	b.WriteString(sep)
	writeLine(&b, cells[0], widths)
	b.WriteString(sep)
	for _, line := range cells[1:] {
		writeLine(&b, line, widths)
	}
	b.WriteString(sep)

	if n < total {
		noun := "rows"
		if n == 1 {
			noun = "row"
		}
		fmt.Fprintf(&b, "only showing top %d %s\n", n, noun)
	}
	b.WriteString("\n")
	return b.String()
}

func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxCellWidth-len(ellipsis)]) + ellipsis
}

func separator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func writeLine(b *strings.Builder, line []string, widths []int) {
	b.WriteByte('|')
	for c, cell := range line {
		b.WriteString(strings.Repeat(" ", widths[c]-utf8.RuneCountInString(cell)))
		b.WriteString(cell)
		b.WriteByte('|')
	}
	b.WriteByte('\n')
}
