package dataframe

import (
	"github.com/paveg/spendscope/internal/series"
)

// WithProduct returns a new DataFrame with a float64 column name holding the
// element-wise product left * right. A null on either side yields null.
func (df *DataFrame) WithProduct(name, left, right string) (*DataFrame, error) {
	lv, lvalid, err := df.numericColumn("WithProduct", left)
	if err != nil {
		return nil, err
	}
	rv, rvalid, err := df.numericColumn("WithProduct", right)
	if err != nil {
		return nil, err
	}

	product := make([]float64, len(lv))
	var valid []bool
	if lvalid != nil || rvalid != nil {
		valid = make([]bool, len(lv))
	}
	for i := range product {
		if valid != nil {
			ok := (lvalid == nil || lvalid[i]) && (rvalid == nil || rvalid[i])
			valid[i] = ok
			if !ok {
				continue
			}
		}
		product[i] = lv[i] * rv[i]
	}

	return df.withColumn(series.NewNullable(name, product, valid, df.mem)), nil
}
