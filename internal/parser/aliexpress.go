package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/maltedev/aliexpress-listing-scraper/internal/models"
	"github.com/maltedev/aliexpress-listing-scraper/internal/variants"
)

type AliExpressParser struct {
	itemIDPattern     *regexp.Regexp
	pricePattern      *regexp.Regexp
	shippingPatterns  []*regexp.Regexp
	freeShipPattern   *regexp.Regexp
	quantityPatterns  []*regexp.Regexp
	limitOnePattern   *regexp.Regexp
	imageSizePattern  *regexp.Regexp
	upcPattern        *regexp.Regexp
	epidPattern       *regexp.Regexp
	unavailableMarks  []string
	soldOutMarks      []string

	now func() time.Time
}

func NewAliExpressParser() *AliExpressParser {
	return &AliExpressParser{
		itemIDPattern: regexp.MustCompile(`/(\d+)\.html`),
		pricePattern:  regexp.MustCompile(`[\d][\d,]*(?:\.\d+)?`),
		shippingPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)shipping:\s*[^\d]{0,3}([\d,]+(?:\.\d+)?)`),
			regexp.MustCompile(`(?i)delivery:\s*[^\d]{0,3}([\d,]+(?:\.\d+)?)`),
		},
		freeShipPattern: regexp.MustCompile(`(?i)free\s+shipping`),
		quantityPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+)\s+available`),
			regexp.MustCompile(`(?i)only\s+(\d+)\s+left`),
			regexp.MustCompile(`(?i)(\d+)\s+pieces?\s+available`),
		},
		limitOnePattern:  regexp.MustCompile(`(?i)limit(?:ed)?\s+to\s+1\b|max\.?\s*1\s+(?:pcs?|piece)|1\s+per\s+(?:buyer|customer)`),
		imageSizePattern: regexp.MustCompile(`(\.(?:jpg|jpeg|png|webp))_.*$`),
		upcPattern:       regexp.MustCompile(`(?i)(?:UPC|EAN)\s*:?\s*(\d{8,14})`),
		epidPattern:      regexp.MustCompile(`(?i)EPID\s*:?\s*(\d+)`),
		unavailableMarks: []string{
			"this product can't be shipped",
			"can no longer be shipped",
			"item no longer available",
			"this item is no longer available",
			"sorry, this item is no longer available",
		},
		soldOutMarks: []string{"sold out", "out of stock"},
		now:          time.Now,
	}
}

// ParseSnapshot extracts the full listing snapshot from a rendered product
// page. Missing fields default to empty strings; only a page-level
// unavailability marker is an error.
func (p *AliExpressParser) ParseSnapshot(html, url string) (*models.ProductSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	pageText := doc.Text()
	if p.Unavailable(pageText) {
		return nil, fmt.Errorf("parsing %s: %w", url, ErrProductUnavailable)
	}

	snap := &models.ProductSnapshot{
		URL:         url,
		CustomLabel: p.CustomLabelFromURL(url),
		ScanDate:    p.now().Format("2006-01-02"),
	}

	snap.Title = strings.TrimSpace(doc.Find(`h1[data-pl="product-title"]`).First().Text())
	if snap.Title == "" {
		snap.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	snap.Price = p.RenderedPrice(html)
	snap.Shipping = p.ShippingCost(pageText)
	snap.Quantity = p.QuantitySignal(pageText).Export()
	snap.Total = addFixed(snap.Price, snap.Shipping)

	p.extractCategory(doc, snap)
	p.extractStoreInfo(doc, snap)
	p.extractDescription(doc, snap)
	p.extractSpecifications(doc, snap)
	snap.Photos = p.extractImages(doc)
	snap.Videos = p.extractVideos(doc)
	snap.ShipTo = p.extractShipTo(doc)
	snap.OptionGroups = p.DiscoverOptionGroups(html)

	return snap, nil
}

// DiscoverOptionGroups reads the selectable attribute blocks. Sold-out
// options are skipped; groups whose options are all sold out come back
// empty and are dropped by variants.Normalize.
func (p *AliExpressParser) DiscoverOptionGroups(html string) []variants.OptionGroup {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var groups []variants.OptionGroup
	doc.Find(`div[class*="sku-item--property"]`).Each(func(_ int, block *goquery.Selection) {
		name := strings.TrimSpace(block.Find(`div[class*="sku-item--title"]`).First().Text())
		if name == "" {
			return
		}

		var opts []variants.Option
		block.Find(`div[data-sku-col], div[class*="sku-item--image"], div[class*="sku-item--text"]`).Each(func(_ int, el *goquery.Selection) {
			if cls, _ := el.Attr("class"); strings.Contains(strings.ToLower(cls), "soldout") {
				return
			}

			opt := variants.Option{}
			if img := el.Find("img").First(); img.Length() > 0 {
				opt.Value, _ = img.Attr("alt")
				if src, ok := img.Attr("src"); ok {
					opt.Image = p.fullSizeImage(src)
				}
			}
			if opt.Value == "" {
				opt.Value = strings.TrimSpace(el.Text())
			}
			if opt.Value != "" {
				opts = append(opts, opt)
			}
		})

		groups = append(groups, variants.OptionGroup{Name: name, Options: opts})
	})

	return variants.Normalize(groups)
}

// RenderedPrice returns the first numeric run of the currently displayed
// price element, commas stripped, or empty when no price is rendered.
func (p *AliExpressParser) RenderedPrice(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	selectors := []string{
		`div[class*="price--current"]`,
		`span[class*="price--currentPriceText"]`,
		`.product-price-value`,
		`div[class*="price-default--current"]`,
	}

	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if m := p.pricePattern.FindString(text); m != "" {
			return strings.ReplaceAll(m, ",", "")
		}
	}
	return ""
}

// ShippingCost extracts a shipping amount from rendered text. "0" covers
// both free shipping and no signal, matching the export contract.
func (p *AliExpressParser) ShippingCost(text string) string {
	if p.freeShipPattern.MatchString(text) {
		return "0"
	}
	for _, re := range p.shippingPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return strings.ReplaceAll(m[1], ",", "")
		}
	}
	return "0"
}

// QuantitySignal reads stock hints from rendered text. A per-buyer limit
// wins over an explicit count; no signal means unconstrained.
func (p *AliExpressParser) QuantitySignal(text string) variants.Quantity {
	if p.limitOnePattern.MatchString(text) {
		return variants.KnownQuantity(1)
	}
	for _, re := range p.quantityPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return variants.KnownQuantity(n)
			}
		}
	}
	return variants.Unconstrained()
}

func (p *AliExpressParser) SoldOut(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range p.soldOutMarks {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func (p *AliExpressParser) Unavailable(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range p.unavailableMarks {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// CustomLabelFromURL derives the SKU root: "P" plus the numeric item ID.
func (p *AliExpressParser) CustomLabelFromURL(url string) string {
	if m := p.itemIDPattern.FindStringSubmatch(url); len(m) > 1 {
		return "P" + m[1]
	}
	return ""
}

func (p *AliExpressParser) extractCategory(doc *goquery.Document, snap *models.ProductSnapshot) {
	crumbs := doc.Find(`div[class*="breadcrumb"] a`)
	if crumbs.Length() == 0 {
		return
	}

	last := crumbs.Last()
	snap.CategoryName = strings.TrimSpace(last.Text())
	if href, ok := last.Attr("href"); ok {
		// Category links end in /category/<id>/<slug>.html or ?categoryId=<id>.
		if m := regexp.MustCompile(`(?:category/|categoryId=)(\d+)`).FindStringSubmatch(href); len(m) > 1 {
			snap.CategoryID = m[1]
		}
	}
}

func (p *AliExpressParser) extractStoreInfo(doc *goquery.Document, snap *models.ProductSnapshot) {
	snap.StoreName = strings.TrimSpace(doc.Find(`a[data-pl="store-name"]`).First().Text())

	doc.Find(`div[class*="store-info"] li, div[class*="store-header"] li`).Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		switch {
		case strings.HasPrefix(text, "Name:"):
			if snap.StoreName == "" {
				snap.StoreName = strings.TrimSpace(strings.TrimPrefix(text, "Name:"))
			}
		case strings.HasPrefix(text, "Store no.:"):
			snap.StoreNo = strings.TrimSpace(strings.TrimPrefix(text, "Store no.:"))
		case strings.HasPrefix(text, "Open since:"):
			snap.OpenSince = strings.TrimSpace(strings.TrimPrefix(text, "Open since:"))
		}
	})
}

func (p *AliExpressParser) extractDescription(doc *goquery.Document, snap *models.ProductSnapshot) {
	snap.Description = strings.TrimSpace(doc.Find(`#product-description, div[class*="description--wrap"]`).First().Text())

	var points []string
	doc.Find(`div[class*="seo-sellpoints"] li, ul[class*="sellpoint"] li`).Each(func(_ int, li *goquery.Selection) {
		if t := strings.TrimSpace(li.Text()); t != "" {
			points = append(points, t)
		}
	})
	snap.SellPoints = strings.Join(points, "\n")
}

func (p *AliExpressParser) extractSpecifications(doc *goquery.Document, snap *models.ProductSnapshot) {
	var specs []string
	doc.Find(`div[class*="specification--prop"]`).Each(func(_ int, prop *goquery.Selection) {
		name := strings.TrimSpace(prop.Find(`div[class*="specification--title"]`).Text())
		value := strings.TrimSpace(prop.Find(`div[class*="specification--desc"]`).Text())
		if name == "" || value == "" {
			return
		}
		specs = append(specs, name+": "+value)

		lower := strings.ToLower(name)
		if strings.Contains(lower, "warning") || strings.Contains(lower, "disclaimer") {
			snap.Warning = value
		}
	})
	snap.Specifications = strings.Join(specs, "\n")

	if m := p.upcPattern.FindStringSubmatch(snap.Specifications); len(m) > 1 {
		snap.UPC = m[1]
	}
	if m := p.epidPattern.FindStringSubmatch(snap.Specifications); len(m) > 1 {
		snap.EPID = m[1]
	}
}

func (p *AliExpressParser) extractImages(doc *goquery.Document) []string {
	var images []string
	seen := make(map[string]bool)

	doc.Find(`div[class*="slider--item"] img, div[class*="image-view"] img`).Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		full := p.fullSizeImage(src)
		if full == "" || seen[full] {
			return
		}
		seen[full] = true
		images = append(images, full)
	})

	return images
}

func (p *AliExpressParser) extractVideos(doc *goquery.Document) []string {
	var videos []string
	doc.Find("video source, video").Each(func(_ int, v *goquery.Selection) {
		if src, ok := v.Attr("src"); ok && src != "" {
			videos = append(videos, src)
		}
	})
	return videos
}

func (p *AliExpressParser) extractShipTo(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(`span[class*="address--text"], div[class*="shipping--to"]`).First().Text())
}

// fullSizeImage strips the CDN thumbnail suffix ("..._220x220q75.jpg_.avif")
// back to the original asset URL.
func (p *AliExpressParser) fullSizeImage(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return p.imageSizePattern.ReplaceAllString(src, "$1")
}

// addFixed sums two decimal strings at two decimals, returning empty when
// either side is missing or not numeric.
func addFixed(a, b string) string {
	if a == "" || b == "" {
		return ""
	}
	da, err := decimal.NewFromString(a)
	if err != nil {
		return ""
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return ""
	}
	return da.Add(db).StringFixed(2)
}
