package profile

// Record is one purchased line item parsed from a receipt. Records are
// append-only: once written to a table they are never updated in place.
type Record struct {
	StoreName string `json:"store_name" csv:"Store Name"`
	ItemName  string `json:"item_name" csv:"Item Purchased"`
	Price     string `json:"price" csv:"Price"` // as captured, e.g. "$3.50"
}

// profileRow is a row of the per-user profile index table.
type profileRow struct {
	ProfileName string `csv:"Profile Name"`
}

// Record table column headers. These are part of the on-disk contract;
// other tools read the tables, so the names must not change.
var recordColumns = []string{"Store Name", "Item Purchased", "Price"}
