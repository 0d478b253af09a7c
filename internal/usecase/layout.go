package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/marketlens/backend/internal/domain"
)

// Field names used as cascade labels and provenance keys
const (
	FieldID          = "id"
	FieldLink        = "link"
	FieldTitle       = "title"
	FieldBrand       = "brand"
	FieldCategory    = "category"
	FieldPrice       = "price"
	FieldRating      = "rating"
	FieldReviewCount = "reviewCount"
	FieldSales       = "sales"
	FieldRanking     = "ranking"
	FieldSellerName  = "sellerName"
	FieldSellerLink  = "sellerLink"
)

// Layout bundles every cascade and marker set needed to read one marketplace's markup.
// A new markup variant is supported by appending a strategy to the relevant cascade.
type Layout struct {
	Name domain.Layout

	ID          Cascade
	Link        Cascade
	Title       Cascade
	Brand       Cascade
	Category    Cascade
	Price       Cascade
	Rating      Cascade
	ReviewCount Cascade
	SellerName  Cascade
	SellerLink  Cascade
	// Sales strategies locate candidate text; the assembler keeps the first candidate
	// the classifier admits.
	Sales   Cascade
	Ranking RankingParser

	// SponsorMarkers are looked up among descendants, SelfSponsorMarkers and
	// OrganicMarkers are matched against the node itself.
	SponsorMarkers     []string
	SelfSponsorMarkers []string
	OrganicMarkers     []string

	// ListingRow locates one product per match on a search results page
	ListingRow string
}

// LayoutByName resolves a layout by its marketplace name
func LayoutByName(name string) (Layout, error) {
	switch domain.Layout(strings.ToLower(strings.TrimSpace(name))) {
	case domain.LayoutPrimary:
		return PrimaryLayout(), nil
	case domain.LayoutSecondary:
		return SecondaryLayout(), nil
	}
	return Layout{}, fmt.Errorf("%w: %q", domain.ErrUnknownLayout, name)
}

// Regex patterns shared by the layout strategies
var (
	primaryIDRegex     = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	primaryIDPathRegex = regexp.MustCompile(`/(?:dp|gp/product)/([A-Z0-9]{10})`)
	secondaryIDRegex   = regexp.MustCompile(`(?i)\b(ML[A-Z])-?(\d{6,})`)

	brandLinkRegex  = regexp.MustCompile(`(?i)/stores/|/brand/|field-brandtextbin|/marca/`)
	brandLabelRegex = regexp.MustCompile(`(?i)\b(?:marca|brand)\s*[:：]\s*([^\n|•]+)`)
	soldByRegex     = regexp.MustCompile(`(?i)\b(?:sold by|vendido por)\s*:?\s*([^\n|•]{2,80})`)
	rankLabelRegex  = regexp.MustCompile(`(?is)(?:best\s*sellers\s*rank|ranking dos mais vendidos|classifica[çc][ãa]o nos mais vendidos)\s*:?\s*(.{1,500})`)
	digitRegex      = regexp.MustCompile(`\d`)

	brandBoilerplate = []*regexp.Regexp{
		regexp.MustCompile(`(?i)visite a loja(?:\s+d[eoa]s?)?`),
		regexp.MustCompile(`(?i)\bvisit the\b`),
		regexp.MustCompile(`(?i)\s+store$`),
		regexp.MustCompile(`(?i)^(?:marca|brand)\s*[:：]`),
		regexp.MustCompile(`(?i)^loja oficial\s+`),
	}
	sellerBoilerplate = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:ships from and sold by|vendido e entregue por|vendido por|sold by|por)\b\s*:?\s*`),
		regexp.MustCompile(`(?i)visite a loja(?:\s+d[eoa]s?)?`),
		regexp.MustCompile(`(?i)^loja oficial\s+`),
	}
	rankLabels = []string{"best sellers rank", "ranking dos mais vendidos", "classificação nos mais vendidos"}
)

// Post-processors applied uniformly to the winning raw text of a cascade

func cleanBrand(raw string) string {
	return stripPhrases(cutAtSeparator(raw, "|", "•", "\n"), brandBoilerplate)
}

func cleanSeller(raw string) string {
	return stripPhrases(cutAtSeparator(raw, "|", "•", "\n", " - "), sellerBoilerplate)
}

// requireDigit drops numeric fields that carry no digits at all, e.g. "Indisponível"
func requireDigit(raw string) string {
	if !digitRegex.MatchString(raw) {
		return ""
	}
	return raw
}

// cleanLink drops tracking fragments and query strings
func cleanLink(raw string) string {
	link := cutAtSeparator(raw, "#", "?")
	if idx := strings.Index(link, "/ref="); idx >= 0 {
		link = link[:idx]
	}
	return link
}

func normalizePrimaryID(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if !primaryIDRegex.MatchString(id) {
		return ""
	}
	return id
}

func normalizeSecondaryID(raw string) string {
	match := secondaryIDRegex.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}
	return strings.ToUpper(match[1]) + match[2]
}

// Locators specific enough to need their own logic

// textScan runs re over the node's whole text and returns capture group 1
func textScan(re *regexp.Regexp) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		match := re.FindStringSubmatch(node.Text())
		if match == nil {
			return "", nil
		}
		return normalizeText(match[1]), nil
	}
}

// joinedText returns the text of every match, one per line
func joinedText(pattern string) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		var lines []string
		for _, match := range node.Find(pattern) {
			if text := normalizeText(match.Text()); text != "" {
				lines = append(lines, text)
			}
		}
		return strings.Join(lines, "\n"), nil
	}
}

// fullText hands the whole node text to the caller, for free-text scanning
func fullText(node domain.ContentNode) (string, error) {
	return node.Text(), nil
}

// hrefMatch returns the text of the first anchor whose target matches re
func hrefMatch(re *regexp.Regexp) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		for _, anchor := range node.Find("a[href]") {
			href, _ := anchor.Attr("href")
			if !re.MatchString(href) {
				continue
			}
			if text := normalizeText(anchor.Text()); text != "" {
				return text, nil
			}
		}
		return "", nil
	}
}

// hrefID extracts an id from the first anchor or link whose target carries one
func hrefID(pattern string, re *regexp.Regexp, group int) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		for _, anchor := range node.Find(pattern) {
			href, _ := anchor.Attr("href")
			if match := re.FindStringSubmatch(href); match != nil {
				return match[group], nil
			}
		}
		return "", nil
	}
}

// splitPrice joins a whole part and a fraction part rendered in separate elements,
// e.g. "1.299" and "90" into "1299,90"
func splitPrice(container, whole, fraction, decimalMark string) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		for _, price := range node.Find(container) {
			wholeText := ""
			for _, part := range price.Find(whole) {
				// the whole part is an integer, so any separator in it is grouping
				if wholeText = nonDigitRegex.ReplaceAllString(part.Text(), ""); wholeText != "" {
					break
				}
			}
			if wholeText == "" {
				continue
			}
			for _, part := range price.Find(fraction) {
				if fractionText := normalizeText(part.Text()); fractionText != "" {
					return wholeText + decimalMark + fractionText, nil
				}
			}
			return wholeText, nil
		}
		return "", nil
	}
}

// PrimaryLayout reads the primary marketplace: detail pages keyed by a 10-character
// id and search rows tagged with data-component-type.
func PrimaryLayout() Layout {
	detailRows := `#productDetails_techSpec_section_1 tr, #productDetails_detailBullets_sections1 tr, #productDetails_db_sections tr`
	bulletRows := `#detailBullets_feature_div li, #detailBulletsWrapper_feature_div li`

	return Layout{
		Name: domain.LayoutPrimary,
		ID: Cascade{
			Field: FieldID,
			Strategies: []Strategy{
				{ID: "data_asin_attr", Locate: ownAttr("data-asin")},
				{ID: "asin_input", Locate: firstAttr(`input#ASIN, input[name="ASIN"]`, "value")},
				{ID: "data_asin_descendant", Locate: firstAttr("[data-asin]", "data-asin")},
				{ID: "canonical_link_id", Locate: hrefID(`link[rel="canonical"]`, primaryIDPathRegex, 1)},
				{ID: "product_path_id", Locate: hrefID("a[href]", primaryIDPathRegex, 1)},
			},
			PostProcess: normalizePrimaryID,
		},
		Link: Cascade{
			Field: FieldLink,
			Strategies: []Strategy{
				{ID: "canonical_link", Locate: firstLink(`link[rel="canonical"]`)},
				{ID: "title_anchor", Locate: firstLink(`[data-cy="title-recipe"] a, h2 a`)},
				{ID: "product_path_anchor", Locate: firstLink(`a[href*="/dp/"]`)},
			},
			PostProcess: cleanLink,
		},
		Title: Cascade{
			Field: FieldTitle,
			Strategies: []Strategy{
				{ID: "product_title", Locate: firstText("#productTitle")},
				{ID: "listing_heading", Locate: firstText(`[data-cy="title-recipe"] h2, h2 span`)},
				{ID: "image_alt", Locate: firstAttr(`#landingImage, img.s-image`, "alt")},
				{ID: "og_title", Locate: firstAttr(`meta[property="og:title"]`, "content")},
			},
		},
		Brand: Cascade{
			Field: FieldBrand,
			Strategies: []Strategy{
				{ID: "byline", Locate: firstText("#bylineInfo")},
				{ID: "overview_table", Locate: labeledRow(`#productOverview_feature_div tr`, "td:first-child", "td:last-child", "marca", "brand")},
				{ID: "detail_table", Locate: labeledRow(detailRows, "th", "td", "marca", "brand")},
				{ID: "detail_bullets", Locate: labeledRow(bulletRows, ".a-text-bold", "", "marca", "brand")},
				{ID: "brand_link", Locate: hrefMatch(brandLinkRegex)},
				{ID: "listing_heading", Locate: firstText(`h5 span.a-size-base-plus, .s-line-clamp-1 span.a-size-base-plus`)},
				{ID: "label_scan", Locate: textScan(brandLabelRegex)},
			},
			PostProcess: cleanBrand,
		},
		Category: Cascade{
			Field: FieldCategory,
			Strategies: []Strategy{
				{ID: "breadcrumb", Locate: firstText(`#wayfinding-breadcrumbs_feature_div li a`)},
				{ID: "search_alias", Locate: firstText(`#searchDropdownBox option[selected]`)},
			},
		},
		Price: Cascade{
			Field: FieldPrice,
			Strategies: []Strategy{
				{ID: "core_price", Locate: firstText(`#corePrice_feature_div .a-offscreen, #corePriceDisplay_desktop_feature_div .a-offscreen`)},
				{ID: "price_block", Locate: firstText(`.a-price:not(.a-text-price) .a-offscreen`)},
				{ID: "price_parts", Locate: splitPrice(".a-price", ".a-price-whole", ".a-price-fraction", ",")},
			},
			PostProcess: requireDigit,
		},
		Rating: Cascade{
			Field: FieldRating,
			Strategies: []Strategy{
				{ID: "popover_title", Locate: firstAttr("#acrPopover", "title")},
				{ID: "star_icon", Locate: firstText(`i.a-icon-star span.a-icon-alt, i.a-icon-star-small span.a-icon-alt`)},
				{ID: "aria_label", Locate: firstAttr(`[aria-label*="out of 5"], [aria-label*="de 5"]`, "aria-label")},
			},
			PostProcess: requireDigit,
		},
		ReviewCount: Cascade{
			Field: FieldReviewCount,
			Strategies: []Strategy{
				{ID: "review_text", Locate: firstText("#acrCustomerReviewText")},
				{ID: "reviews_link", Locate: firstText(`a[href*="customerReviews"] span.s-underline-text, span.s-underline-text`)},
				{ID: "aria_reviews", Locate: firstAttr(`[aria-label$="ratings"], [aria-label$="avaliações"]`, "aria-label")},
			},
			PostProcess: requireDigit,
		},
		SellerName: Cascade{
			Field: FieldSellerName,
			Strategies: []Strategy{
				{ID: "seller_profile", Locate: firstText("#sellerProfileTriggerId")},
				{ID: "merchant_info", Locate: firstText(`#merchant-info a, #merchantInfoFeature_feature_div .offer-display-feature-text-message`)},
				{ID: "sold_by_label", Locate: textScan(soldByRegex)},
			},
			PostProcess: cleanSeller,
		},
		SellerLink: Cascade{
			Field: FieldSellerLink,
			Strategies: []Strategy{
				{ID: "seller_profile_link", Locate: firstLink("#sellerProfileTriggerId")},
				{ID: "merchant_link", Locate: firstLink("#merchant-info a")},
				{ID: "seller_query_link", Locate: firstLink(`a[href*="seller="]`)},
			},
		},
		Sales: Cascade{
			Field: FieldSales,
			Strategies: []Strategy{
				{ID: "social_proofing", Locate: joinedText(`#social-proofing-faceout-title-tk_bought, #socialProofingAsinFaceout_feature_div`)},
				{ID: "listing_badges", Locate: joinedText(`.a-row.a-size-base span.a-color-secondary`)},
				{ID: "full_text_scan", Locate: fullText},
			},
		},
		Ranking: NewRankingParser(
			[]Strategy{
				{ID: "sales_rank_table", Locate: labeledRow(detailRows, "th", "td", rankLabels...)},
				{ID: "detail_bullets_rank", Locate: labeledRow(bulletRows, ".a-text-bold", "", rankLabels...)},
				{ID: "sales_rank_block", Locate: firstText("#SalesRank")},
				{ID: "labeled_block_scan", Locate: textScan(rankLabelRegex)},
			},
			[]Strategy{
				{ID: "zeitgeist_widget", Locate: firstText("#zeitgeist-module")},
				{ID: "best_seller_badge", Locate: firstText(`#acBadge_feature_div, .badge-wrapper`)},
			},
		),
		SponsorMarkers: []string{
			".puis-sponsored-label-text",
			`[data-component-type="sp-sponsored-result"]`,
			".s-sponsored-label-info-icon",
		},
		SelfSponsorMarkers: []string{".AdHolder"},
		OrganicMarkers:     []string{`[data-component-type="s-search-result"]:not(.AdHolder)`},
		ListingRow:         `div[data-component-type="s-search-result"]`,
	}
}

// SecondaryLayout reads the secondary marketplace: ui-pdp detail pages and poly-card
// search results.
func SecondaryLayout() Layout {
	specRows := `.ui-pdp-specs__table tr, .andes-table tr`

	return Layout{
		Name: domain.LayoutSecondary,
		ID: Cascade{
			Field: FieldID,
			Strategies: []Strategy{
				{ID: "item_id_input", Locate: firstAttr(`input[name="item_id"]`, "value")},
				{ID: "canonical_link_id", Locate: hrefID(`link[rel="canonical"]`, secondaryIDRegex, 0)},
				{ID: "item_link_id", Locate: hrefID("a[href]", secondaryIDRegex, 0)},
			},
			PostProcess: normalizeSecondaryID,
		},
		Link: Cascade{
			Field: FieldLink,
			Strategies: []Strategy{
				{ID: "canonical_link", Locate: firstLink(`link[rel="canonical"]`)},
				{ID: "poly_title_link", Locate: firstLink(`a.poly-component__title, .poly-component__title a, a.ui-search-link`)},
				{ID: "item_link", Locate: firstLink(`a[href*="MLB"]`)},
			},
			PostProcess: cleanLink,
		},
		Title: Cascade{
			Field: FieldTitle,
			Strategies: []Strategy{
				{ID: "pdp_title", Locate: firstText(".ui-pdp-title")},
				{ID: "poly_title", Locate: firstText(".poly-component__title")},
				{ID: "search_title", Locate: firstText(".ui-search-item__title")},
				{ID: "og_title", Locate: firstAttr(`meta[property="og:title"]`, "content")},
			},
		},
		Brand: Cascade{
			Field: FieldBrand,
			Strategies: []Strategy{
				{ID: "specs_table", Locate: labeledRow(specRows, "th", "td", "marca", "brand")},
				{ID: "highlighted_specs", Locate: labeledRow(".ui-vpp-highlighted-specs__key-value", "", "", "marca", "brand")},
				{ID: "poly_brand", Locate: firstText(".poly-component__brand")},
				{ID: "brand_link", Locate: hrefMatch(brandLinkRegex)},
				{ID: "label_scan", Locate: textScan(brandLabelRegex)},
			},
			PostProcess: cleanBrand,
		},
		Category: Cascade{
			Field: FieldCategory,
			Strategies: []Strategy{
				{ID: "breadcrumb", Locate: firstText(`.andes-breadcrumb__item a`)},
				{ID: "category_link", Locate: firstText(`.ui-pdp-breadcrumb a, .ui-search-breadcrumb__title`)},
			},
		},
		Price: Cascade{
			Field: FieldPrice,
			Strategies: []Strategy{
				{ID: "meta_price", Locate: firstAttr(`meta[itemprop="price"]`, "content")},
				{ID: "money_amount", Locate: splitPrice(
					`.ui-pdp-price__second-line .andes-money-amount, .poly-price__current .andes-money-amount`,
					".andes-money-amount__fraction", ".andes-money-amount__cents", ",")},
				{ID: "any_money_amount", Locate: splitPrice(
					`.andes-money-amount:not(.andes-money-amount--previous)`,
					".andes-money-amount__fraction", ".andes-money-amount__cents", ",")},
			},
			PostProcess: requireDigit,
		},
		Rating: Cascade{
			Field: FieldRating,
			Strategies: []Strategy{
				{ID: "pdp_rating", Locate: firstText(".ui-pdp-review__rating")},
				{ID: "poly_rating", Locate: firstText(".poly-reviews__rating")},
			},
			PostProcess: requireDigit,
		},
		ReviewCount: Cascade{
			Field: FieldReviewCount,
			Strategies: []Strategy{
				{ID: "pdp_review_amount", Locate: firstText(".ui-pdp-review__amount")},
				{ID: "poly_review_total", Locate: firstText(".poly-reviews__total")},
			},
			PostProcess: requireDigit,
		},
		SellerName: Cascade{
			Field: FieldSellerName,
			Strategies: []Strategy{
				{ID: "pdp_seller_link", Locate: firstText(".ui-pdp-seller__link-trigger")},
				{ID: "seller_header", Locate: firstText(".ui-pdp-seller__header__title")},
				{ID: "poly_seller", Locate: firstText(".poly-component__seller")},
				{ID: "sold_by_label", Locate: textScan(soldByRegex)},
			},
			PostProcess: cleanSeller,
		},
		SellerLink: Cascade{
			Field: FieldSellerLink,
			Strategies: []Strategy{
				{ID: "pdp_seller_link", Locate: firstLink(`a.ui-pdp-seller__link-trigger, .ui-pdp-seller__link-trigger a`)},
				{ID: "seller_profile_link", Locate: firstLink(`a[href*="/perfil/"], a[href*="/pagina/"]`)},
			},
		},
		Sales: Cascade{
			Field: FieldSales,
			Strategies: []Strategy{
				{ID: "pdp_subtitle", Locate: joinedText(".ui-pdp-subtitle")},
				{ID: "poly_sales", Locate: joinedText(`.poly-component__sales, .poly-phrase-label`)},
				{ID: "full_text_scan", Locate: fullText},
			},
		},
		Ranking: NewRankingParser(
			[]Strategy{
				{ID: "promotion_pill", Locate: firstText(`.ui-pdp-promotions-pill-label`)},
				{ID: "labeled_block_scan", Locate: textScan(rankLabelRegex)},
			},
			[]Strategy{
				{ID: "poly_highlight", Locate: firstText(".poly-component__highlight")},
			},
		),
		SponsorMarkers: []string{
			".poly-component__ads-promotions",
			".ui-search-item__ad-label",
		},
		ListingRow: ".ui-search-layout__item",
	}
}
