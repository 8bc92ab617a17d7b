// Package report renders an analytics.Report as console text.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/paveg/spendscope/internal/analytics"
	"github.com/paveg/spendscope/internal/config"
	"github.com/paveg/spendscope/internal/dataframe"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ResultRows is how many rows each aggregate table shows.
const ResultRows = 20

// Renderer writes report sections to an output stream.
type Renderer struct {
	w       io.Writer
	err     error
	title   *color.Color // table previews and progress lines
	heading *color.Color // result sections
	label   *color.Color // row count labels
	caser   cases.Caser
}

// NewRenderer returns a renderer writing to w. ColorAuto leaves the decision
// to the terminal detection of the color package, which also honors NO_COLOR.
func NewRenderer(w io.Writer, mode config.ColorMode) *Renderer {
	r := &Renderer{
		w:       w,
		title:   color.New(color.FgCyan),
		heading: color.New(color.FgYellow),
		label:   color.New(color.FgGreen),
		caser:   cases.Title(language.English),
	}

	for _, c := range []*color.Color{r.title, r.heading, r.label} {
		switch mode {
		case config.ColorAlways:
			c.EnableColor()
		case config.ColorNever:
			c.DisableColor()
		}
	}
	return r
}

// Render writes every section of rep in order: table previews, row counts
// before and after cleaning, category totals overall and for the age group,
// the age group's category shares and the top categories.
func (r *Renderer) Render(rep *analytics.Report) error {
	for _, t := range rep.Tables {
		r.line(r.title, fmt.Sprintf("%s Table:", r.caser.String(t.Name)))
		r.table(t.Raw, rep.PreviewRows)
	}

	r.counts("Number of rows before removing null values", rep, func(t analytics.TableSummary) int { return t.RowsBefore })
	r.blank()
	r.blank()
	r.counts("Number of rows after removing null values", rep, func(t analytics.TableSummary) int { return t.RowsAfter })
	r.blank()

	ageGroup := fmt.Sprintf("the age group %d to %d", rep.AgeMin, rep.AgeMax)

	r.line(r.title, "Calculating total purchase amount for each product category...")
	r.line(r.heading, "Total purchase amount by product category:")
	r.table(rep.CategoryTotals, ResultRows)

	r.line(r.heading, fmt.Sprintf("Total purchase amount by product category for %s inclusive:", ageGroup))
	r.table(rep.AgeGroupTotals, ResultRows)

	r.line(r.heading, fmt.Sprintf("Share of purchases for each product category out of total expenses for %s:", ageGroup))
	r.table(rep.Shares, ResultRows)

	r.line(r.heading, fmt.Sprintf("Top %d product categories with the highest spending percentage by consumers aged %d to %d:",
		rep.TopN, rep.AgeMin, rep.AgeMax))
	r.table(rep.Top, ResultRows)

	return r.err
}

func (r *Renderer) counts(heading string, rep *analytics.Report, count func(analytics.TableSummary) int) {
	r.line(r.heading, heading)
	for _, t := range rep.Tables {
		if r.err != nil {
			return
		}
		_, r.err = fmt.Fprintf(r.w, "%s %d\n", r.label.Sprintf("%s:", r.caser.String(t.Name)), count(t))
	}
}

func (r *Renderer) line(c *color.Color, text string) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintln(r.w, c.Sprint(text))
}

// blank writes the single-space separator line between count sections.
func (r *Renderer) blank() {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintln(r.w, " ")
}

func (r *Renderer) table(df *dataframe.DataFrame, rows int) {
	if r.err != nil || df == nil {
		return
	}
	r.err = df.Show(r.w, rows)
}
