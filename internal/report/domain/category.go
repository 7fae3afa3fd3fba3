package report

import "strings"

// CategoryID identifies a market data category.
type CategoryID string

const (
	CategoryPTF             CategoryID = "ptf"
	CategorySMF             CategoryID = "smf"
	CategorySystemDirection CategoryID = "system_direction"
	CategoryBilateral       CategoryID = "bilateral"
	CategoryDAMQuantity     CategoryID = "dam_clearing_quantity"
	CategoryBPMDown         CategoryID = "bpm_down"
	CategoryBPMUp           CategoryID = "bpm_up"
	CategoryIDMPrice        CategoryID = "idm_weighted_average_price"
	CategoryIDMQuantity     CategoryID = "idm_matching_quantity"
	CategoryPrimaryAmount   CategoryID = "pfc_amount"
	CategoryPrimaryPrice    CategoryID = "pfp_price"
	CategorySecondaryAmount CategoryID = "sfc_amount"
	CategorySecondaryPrice  CategoryID = "sfp_price"
)

// KeySource selects how a category's row timestamp is derived.
type KeySource int

const (
	// KeyDate uses the record's date field.
	KeyDate KeySource = iota
	// KeyContract parses the timestamp from the contract name.
	KeyContract
)

// Measure names a semantic value column of a category.
type Measure string

const (
	MeasurePrice     Measure = "price"
	MeasureQuantity  Measure = "quantity"
	MeasureMatched   Measure = "matched"
	MeasureWAP       Measure = "wap"
	MeasureZeroCoded Measure = "zero_coded"
	MeasureOneCoded  Measure = "one_coded"
	MeasureTwoCoded  Measure = "two_coded"
	MeasureDelivered Measure = "delivered"
	MeasureValue     Measure = "value"
)

// MeasureRule binds a measure to an upstream field.
// Exact wins over Keywords; with neither set the first column is bound.
type MeasureRule struct {
	Measure  Measure
	Exact    string
	Keywords []string
}

func (m MeasureRule) matches(field string) bool {
	if m.Exact != "" {
		return field == m.Exact
	}
	if len(m.Keywords) == 0 {
		return true
	}
	lower := strings.ToLower(field)
	for _, kw := range m.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Category describes one upstream series and how it is normalized.
type Category struct {
	ID       CategoryID
	Label    string
	Endpoint string
	Prefix   string
	Key      KeySource
	Extra    map[string]any
	Measures []MeasureRule
}

// DefaultCatalog returns the categories fetched for a report, in fetch order.
func DefaultCatalog() []Category {
	bpmMeasures := []MeasureRule{
		{Measure: MeasureZeroCoded, Keywords: []string{"zerocoded"}},
		{Measure: MeasureOneCoded, Keywords: []string{"onecoded"}},
		{Measure: MeasureTwoCoded, Keywords: []string{"twocoded"}},
		{Measure: MeasureDelivered, Keywords: []string{"delivered"}},
	}
	idmMeasures := []MeasureRule{
		{Measure: MeasureWAP, Keywords: []string{"wap"}},
		{Measure: MeasureQuantity, Keywords: []string{"quantity", "clearing"}},
	}
	firstColumn := []MeasureRule{{Measure: MeasureValue}}

	return []Category{
		{
			ID:       CategoryPTF,
			Label:    "PTF",
			Endpoint: "/v1/markets/dam/data/mcp",
			Prefix:   "ptf_",
			Measures: []MeasureRule{{Measure: MeasurePrice, Keywords: []string{"price", "mcp"}}},
		},
		{
			ID:       CategorySMF,
			Label:    "SMF",
			Endpoint: "/v1/markets/bpm/data/system-marginal-price",
			Prefix:   "smf_",
			Measures: []MeasureRule{{Measure: MeasurePrice, Keywords: []string{"price", "smp"}}},
		},
		{
			ID:       CategorySystemDirection,
			Label:    "system direction",
			Endpoint: "/v1/markets/bpm/data/system-direction",
			Prefix:   "sysdir_",
		},
		{
			ID:       CategoryBilateral,
			Label:    "bilateral contracts",
			Endpoint: "/v1/markets/bilateral-contracts/data/bilateral-contracts-bid-quantity",
			Prefix:   "bilateral_",
			Measures: []MeasureRule{{Measure: MeasureQuantity, Exact: "quantity"}},
		},
		{
			ID:       CategoryDAMQuantity,
			Label:    "DAM clearing quantity",
			Endpoint: "/v1/markets/dam/data/clearing-quantity",
			Prefix:   "dam_",
			Measures: []MeasureRule{{Measure: MeasureMatched, Keywords: []string{"matched"}}},
		},
		{
			ID:       CategoryBPMDown,
			Label:    "BPM down orders",
			Endpoint: "/v1/markets/bpm/data/order-summary-down",
			Prefix:   "bpmD_",
			Measures: bpmMeasures,
		},
		{
			ID:       CategoryBPMUp,
			Label:    "BPM up orders",
			Endpoint: "/v1/markets/bpm/data/order-summary-up",
			Prefix:   "bpmU_",
			Measures: bpmMeasures,
		},
		{
			ID:       CategoryIDMPrice,
			Label:    "IDM weighted average price",
			Endpoint: "/v1/markets/idm/data/weighted-average-price",
			Prefix:   "idm_",
			Measures: idmMeasures,
		},
		{
			ID:       CategoryIDMQuantity,
			Label:    "IDM matching quantity",
			Endpoint: "/v1/markets/idm/data/matching-quantity",
			Prefix:   "idm_",
			Key:      KeyContract,
			Measures: idmMeasures,
		},
		{
			ID:       CategoryPrimaryAmount,
			Label:    "primary frequency capacity amount",
			Endpoint: "/v1/markets/ancillary-services/data/primary-frequency-capacity-amount",
			Prefix:   "pfc_amount_",
			Measures: firstColumn,
		},
		{
			ID:       CategoryPrimaryPrice,
			Label:    "primary frequency capacity price",
			Endpoint: "/v1/markets/ancillary-services/data/primary-frequency-capacity-price",
			Prefix:   "pfp_price_",
			Measures: firstColumn,
		},
		{
			ID:       CategorySecondaryAmount,
			Label:    "secondary frequency capacity amount",
			Endpoint: "/v1/markets/ancillary-services/data/secondary-frequency-capacity-amount",
			Prefix:   "sfc_amount_",
			Measures: firstColumn,
		},
		{
			ID:       CategorySecondaryPrice,
			Label:    "secondary frequency capacity price",
			Endpoint: "/v1/markets/ancillary-services/data/secondary-frequency-capacity-price",
			Prefix:   "sfp_price_",
			Measures: firstColumn,
		},
	}
}

// FindCategory returns the catalog entry with the given id.
func FindCategory(catalog []Category, id CategoryID) (Category, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
