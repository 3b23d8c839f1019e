package export

import "strconv"

// Columns is the canonical bulk-listing column schema, in order. It is the
// external contract consumed by the downstream marketplace tool; do not
// reorder or rename without coordinating a template change there.
var Columns = []string{
	"#",
	"SKU/Custom-Label",
	"Store Name",
	"Store no",
	"URL",
	"Price",
	"Quantity",
	"SHIP",
	"Ship to",
	"TOTAL",
	"Title",
	"Description",
	"Specifications",
	"Warning/Disclaimer",
	"Product sellpoints",
	"Scan Date",
	"Action",
	"Category ID",
	"Category Name",
	"Relationship",
	"Relationship details",
	"P:UPC",
	"P:EPID",
	"Item photo URL",
	"VideoID",
}

// RelationshipVariation marks rows produced from one variant combination.
// Parent rows carry an empty relationship.
const RelationshipVariation = "Variation"

// ActionAdd is set on parent rows only.
const ActionAdd = "Add"

// Row is one line of the bulk-listing export. Every column is always
// present; empty string means not applicable. Number is assigned at format
// time and re-applied continuously when several products are exported into
// one file.
type Row struct {
	Number              int    `json:"number"`
	SKU                 string `json:"sku"`
	StoreName           string `json:"store_name"`
	StoreNo             string `json:"store_no"`
	URL                 string `json:"url"`
	Price               string `json:"price"`
	Quantity            string `json:"quantity"`
	Ship                string `json:"ship"`
	ShipTo              string `json:"ship_to"`
	Total               string `json:"total"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Specifications      string `json:"specifications"`
	Warning             string `json:"warning"`
	SellPoints          string `json:"sell_points"`
	ScanDate            string `json:"scan_date"`
	Action              string `json:"action"`
	CategoryID          string `json:"category_id"`
	CategoryName        string `json:"category_name"`
	Relationship        string `json:"relationship"`
	RelationshipDetails string `json:"relationship_details"`
	UPC                 string `json:"upc"`
	EPID                string `json:"epid"`
	PhotoURL            string `json:"photo_url"`
	VideoID             string `json:"video_id"`
}

// Values renders the row in schema order.
func (r Row) Values() []string {
	return []string{
		strconv.Itoa(r.Number),
		r.SKU,
		r.StoreName,
		r.StoreNo,
		r.URL,
		r.Price,
		r.Quantity,
		r.Ship,
		r.ShipTo,
		r.Total,
		r.Title,
		r.Description,
		r.Specifications,
		r.Warning,
		r.SellPoints,
		r.ScanDate,
		r.Action,
		r.CategoryID,
		r.CategoryName,
		r.Relationship,
		r.RelationshipDetails,
		r.UPC,
		r.EPID,
		r.PhotoURL,
		r.VideoID,
	}
}

// IsVariant reports whether the row was produced from a combination.
func (r Row) IsVariant() bool {
	return r.Relationship == RelationshipVariation
}

// Renumber assigns contiguous 1-based row numbers in place order, returning
// a new slice. Batch exports call this once over all products' rows so
// numbering is continuous across the whole file.
func Renumber(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].Number = i + 1
	}
	return out
}
