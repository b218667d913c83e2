package domain

// Uncategorized is the top-level category used when no mapping entry matches
const Uncategorized = "Uncategorized"

// MaxTitleLength is the number of characters kept from an item title
const MaxTitleLength = 60

// ImageSlots is the fixed number of image columns on an output row
const ImageSlots = 3

// ItemSource records where a resolved item's attributes came from
type ItemSource string

const (
	SourceLookup   ItemSource = "lookup"
	SourceSupplier ItemSource = "supplier"
	SourceNone     ItemSource = "none"
)

// CategoryMappingEntry is one row of the category mapping table.
// SubCat1 is the pattern matched against vendor category text.
type CategoryMappingEntry struct {
	Category string `json:"category"`
	SubCat1  string `json:"subCat1"`
	SubCat2  string `json:"subCat2"`
	SubCat3  string `json:"subCat3"`
}

// Taxonomy is the four-level category tuple assigned to an item
type Taxonomy struct {
	Category string `json:"category"`
	SubCat1  string `json:"subCat1"`
	SubCat2  string `json:"subCat2"`
	SubCat3  string `json:"subCat3"`
}

// UncategorizedTaxonomy returns the tuple used when nothing matches
func UncategorizedTaxonomy() Taxonomy {
	return Taxonomy{Category: Uncategorized}
}

// SupplierRecord is a fallback row from the supplier table keyed by UPC
type SupplierRecord struct {
	UPC      string `json:"upc"`
	ItemName string `json:"itemName"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	MSRP     string `json:"msrp"`
	Image1   string `json:"image1"`
}

// SupplierTable indexes supplier records by UPC
type SupplierTable map[string]SupplierRecord

// ResolvedItem is the union of lookup-or-fallback fields for a single UPC
type ResolvedItem struct {
	UPC            string             `json:"upc"`
	Title          string             `json:"title"`
	Brand          string             `json:"brand"`
	VendorCategory string             `json:"vendorCategory"`
	MSRP           string             `json:"msrp"`
	Images         [ImageSlots]string `json:"images"`
	Source         ItemSource         `json:"source"`
}

// OutputRow is the catalog-ready record emitted for every input UPC
type OutputRow struct {
	UPC                 string `json:"upc"`
	ItemName            string `json:"itemName"`
	Description         string `json:"description"`
	ExtendedDescription string `json:"extendedDescription"`
	Brand               string `json:"brand"`
	Category            string `json:"category"`
	SubCategory1        string `json:"subCategory1"`
	SubCategory2        string `json:"subCategory2"`
	SubCategory3        string `json:"subCategory3"`
	MSRP                string `json:"msrp"`
	Image1              string `json:"image1"`
	Image2              string `json:"image2"`
	Image3              string `json:"image3"`
}

// OutputColumns are the output table headers in emission order
var OutputColumns = []string{
	"UPC",
	"Item Name",
	"Description",
	"Extended Description",
	"Brand",
	"Category",
	"Sub-Category 1",
	"Sub-Category 2",
	"Sub-Category 3",
	"MSRP",
	"Image 1",
	"Image 2",
	"Image 3",
}

// Values returns the row's fields in OutputColumns order
func (r OutputRow) Values() []string {
	return []string{
		r.UPC,
		r.ItemName,
		r.Description,
		r.ExtendedDescription,
		r.Brand,
		r.Category,
		r.SubCategory1,
		r.SubCategory2,
		r.SubCategory3,
		r.MSRP,
		r.Image1,
		r.Image2,
		r.Image3,
	}
}

// EnrichmentInput holds the tables a single run consumes.
// A nil UPCs or Mapping means the input was not supplied at all.
type EnrichmentInput struct {
	UPCs     []string
	Mapping  []CategoryMappingEntry
	Supplier SupplierTable
}

// RunStats summarises how each row of a run was produced
type RunStats struct {
	Rows                int `json:"rows"`
	LookupHits          int `json:"lookupHits"`
	SupplierFallbacks   int `json:"supplierFallbacks"`
	Unresolved          int `json:"unresolved"`
	Uncategorized       int `json:"uncategorized"`
	ClassifierOverrides int `json:"classifierOverrides"`
	ClassifierFailures  int `json:"classifierFailures"`
}

// EnrichmentResult is the complete output of one run
type EnrichmentResult struct {
	RunID string      `json:"runId"`
	Rows  []OutputRow `json:"rows"`
	Stats RunStats    `json:"stats"`
}
