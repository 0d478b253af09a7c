package domain

// Layout names one of the supported marketplace markup families
type Layout string

const (
	// LayoutPrimary is the primary marketplace (detail pages keyed by a 10-character id)
	LayoutPrimary Layout = "primary"
	// LayoutSecondary is the secondary marketplace (ui-pdp / poly-card markup)
	LayoutSecondary Layout = "secondary"
)

// RankKind labels a ranking entry by its position in the ranked list
type RankKind string

const (
	RankPrimary   RankKind = "primary"
	RankSecondary RankKind = "secondary"
)

// ProductRecord is the canonical output of one extraction pass over a content node.
// Every pointer field is nil when the corresponding field could not be located.
type ProductRecord struct {
	ID              *string           `json:"id"`
	Marketplace     Layout            `json:"marketplace"`
	Link            *string           `json:"link"`
	Title           *string           `json:"title"`
	Brand           *string           `json:"brand"`
	Category        *string           `json:"category"`
	Price           Price             `json:"price"`
	Rating          Rating            `json:"rating"`
	ReviewCount     *int              `json:"reviewCount"`
	Sales           *SalesSignal      `json:"sales"`
	RevenueEstimate *float64          `json:"revenueEstimate"`
	Ranking         Ranking           `json:"ranking"`
	Seller          Seller            `json:"seller"`
	Sponsored       bool              `json:"sponsored"`
	Organic         bool              `json:"organic"`
	Position        *int              `json:"position"`
	Provenance      map[string]string `json:"provenance,omitempty"`
}

// Price holds the displayed price text and its parsed value
type Price struct {
	Text    *string  `json:"text"`
	Numeric *float64 `json:"numeric"`
}

// Rating holds the displayed rating text and its parsed value
type Rating struct {
	Text    *string  `json:"text"`
	Numeric *float64 `json:"numeric"`
}

// Seller identifies the merchant offering the product
type Seller struct {
	Name *string `json:"name"`
	Link *string `json:"link"`
}

// Ranking holds at most two best-seller entries in document order
type Ranking struct {
	Primary   *RankCategoryPair `json:"primary"`
	Secondary *RankCategoryPair `json:"secondary"`
}

// RankCategoryPair is one "#N in Category" entry
type RankCategoryPair struct {
	Rank     int      `json:"rank"`
	Category string   `json:"category"`
	Kind     RankKind `json:"kind"`
}

// SalesSignal is a classified "N units sold" assertion.
// Approximate is set when the phrase stated a floor ("more than", "+").
type SalesSignal struct {
	Units       int    `json:"units"`
	RawText     string `json:"rawText"`
	Approximate bool   `json:"approximate"`
}

// ExtractionAttempt records one strategy invocation within a cascade
type ExtractionAttempt struct {
	StrategyID string  `json:"strategyId"`
	RawText    *string `json:"rawText"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

// FieldExtractionResult is the outcome of a field cascade.
// Value is nil when every strategy was exhausted; that is a valid terminal state.
type FieldExtractionResult struct {
	Value        *string             `json:"value"`
	RawText      string              `json:"rawText"`
	StrategyUsed string              `json:"strategyUsed,omitempty"`
	Attempts     []ExtractionAttempt `json:"attempts,omitempty"`
}

// Found reports whether a strategy produced a value
func (r FieldExtractionResult) Found() bool {
	return r.Value != nil
}

// ProductRef identifies a product whose detail page should be fetched
type ProductRef struct {
	ID  string `json:"id" binding:"required"`
	URL string `json:"url" binding:"required"`
}

// EnrichmentResult pairs a requested product with its assembled record.
// Record is nil when the detail page could not be fetched.
type EnrichmentResult struct {
	Ref    ProductRef     `json:"ref"`
	Record *ProductRecord `json:"record"`
	Cached bool           `json:"cached"`
	Error  string         `json:"error,omitempty"`
}
