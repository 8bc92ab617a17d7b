package analytics

import (
	"fmt"

	dfio "github.com/paveg/spendscope/internal/io"
)

// Column names shared by the input tables and the derived frames.
const (
	ColUserID        = "user_id"
	ColAge           = "age"
	ColProductID     = "product_id"
	ColCategory      = "category"
	ColPrice         = "price"
	ColQuantity      = "quantity"
	ColTotalPurchase = "total_purchase"
	ColTotalSum      = "total_purchase_sum"
)

// Table names, in the order tables are loaded and reported.
const (
	TableUsers     = "users"
	TablePurchases = "purchases"
	TableProducts  = "products"
)

// UsersSchema declares the user columns the pipeline depends on. Other
// demographic columns are loaded as strings.
func UsersSchema() dfio.Schema {
	return dfio.NewSchema(
		dfio.Field{Name: ColUserID, Type: dfio.Int64},
		dfio.Field{Name: ColAge, Type: dfio.Int64},
	)
}

// PurchasesSchema declares the purchase columns. Quantity is read as float64
// so integer and fractional quantities are both accepted.
func PurchasesSchema() dfio.Schema {
	return dfio.NewSchema(
		dfio.Field{Name: ColUserID, Type: dfio.Int64},
		dfio.Field{Name: ColProductID, Type: dfio.Int64},
		dfio.Field{Name: ColQuantity, Type: dfio.Float64},
	)
}

// ProductsSchema declares the product columns.
func ProductsSchema() dfio.Schema {
	return dfio.NewSchema(
		dfio.Field{Name: ColProductID, Type: dfio.Int64},
		dfio.Field{Name: ColCategory, Type: dfio.String},
		dfio.Field{Name: ColPrice, Type: dfio.Float64},
	)
}

// AgeGroupSumColumn names the per-category sum restricted to an age range,
// e.g. total_purchase_sum_18_25.
func AgeGroupSumColumn(lo, hi int64) string {
	return fmt.Sprintf("%s_%d_%d", ColTotalSum, lo, hi)
}

// AgeGroupShareColumn names the share column for an age range, e.g.
// percentage_of_total_18_25.
func AgeGroupShareColumn(lo, hi int64) string {
	return fmt.Sprintf("percentage_of_total_%d_%d", lo, hi)
}
