package analytics

import (
	"context"
	"log/slog"

	"github.com/paveg/spendscope/internal/common"
	"github.com/paveg/spendscope/internal/dataframe"
	dferrors "github.com/paveg/spendscope/internal/errors"
	"github.com/paveg/spendscope/internal/series"
	"github.com/paveg/spendscope/internal/validation"
)

// Percentages returns df with a float64 column shareCol holding each row's
// sumCol value as a percentage of the column total, rounded half-up to two
// decimals.
//
// The total is the sum of the sumCol values as they are, so when those are
// already rounded the shares are computed from rounded sums. An empty frame
// yields an empty share column. A zero total yields 0 for every row and a
// warning on logger; it is not an error. Null sums stay null and do not
// count towards the total.
func Percentages(ctx context.Context, df *dataframe.DataFrame, sumCol, shareCol string, logger *slog.Logger) (*dataframe.DataFrame, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if df.HasColumn(shareCol) {
		return nil, dferrors.NewSchemaError("Percentages", shareCol, "column already exists")
	}
	sums, valid, err := df.Float64Values(sumCol)
	if err != nil {
		return nil, err
	}

	total, err := df.Sum(sumCol)
	if err != nil {
		return nil, err
	}

	shares := make([]float64, len(sums))
	zeroTotal := false
	for i, v := range sums {
		if valid != nil && !valid[i] {
			continue
		}
		pct, ok := common.Percentage(v, total)
		if !ok {
			zeroTotal = true
		}
		shares[i] = pct
	}

	if zeroTotal {
		logger.WarnContext(ctx, "category total is zero, shares reported as 0",
			"column", sumCol, "rows", len(sums), "err", dferrors.ErrDivisionByZero)
	}

	return df.WithColumn(series.NewNullable(shareCol, shares, valid, df.Allocator()))
}

// TopN returns the n rows with the largest shareCol values, largest first.
// Ties are broken by labelCol ascending. Fewer than n rows returns them all.
func TopN(df *dataframe.DataFrame, shareCol, labelCol string, n int) (*dataframe.DataFrame, error) {
	if err := validation.ValidatePositive("n", n, "TopN"); err != nil {
		return nil, err
	}
	if err := validation.ValidateColumns(df, "TopN", shareCol, labelCol); err != nil {
		return nil, err
	}

	sorted, err := df.SortBy(dataframe.Desc(shareCol), dataframe.Asc(labelCol))
	if err != nil {
		return nil, err
	}
	defer sorted.Release()

	return sorted.Head(n), nil
}
