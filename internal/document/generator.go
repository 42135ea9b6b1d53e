package document

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reliantech/storefront/internal/domain"
	apperrors "github.com/reliantech/storefront/pkg/errors"
)

// QuoteValidityDays is the validity horizon printed on quotes.
const QuoteValidityDays = 30

// ErrNoLineItems is returned when generation is requested for an empty cart
// or order. No file is produced in that case.
var ErrNoLineItems = apperrors.Unprocessable("document has no line items")

var documentsGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "documents_generated_total",
		Help: "Total number of quote and invoice documents generated",
	},
	[]string{"type"},
)

// Config holds the static identity and boilerplate printed on every document.
type Config struct {
	BrandName    string
	CompanyLines []string
	LegalTerms   []string
	CertCodes    []string
}

// DefaultConfig returns the storefront's document identity.
func DefaultConfig() Config {
	return Config{
		BrandName: "Reliantech",
		CompanyLines: []string{
			"Reliantech Enterprise Hardware",
			"2200 Commerce Park Drive, Suite 400",
			"Austin, TX 78744, United States",
			"sales@reliantech.example  |  +1 (512) 555-0144",
		},
		LegalTerms: []string{
			"All prices are exclusive of applicable taxes and duties unless stated otherwise.",
			"Hardware is sold subject to Reliantech standard terms of sale and warranty policy.",
			"Quoted lead times are estimates and subject to component availability.",
			"Returns require a written RMA authorization issued within 30 days of delivery.",
		},
		CertCodes: []string{"ISO 9001:2015", "ISO 14001:2015", "R2v3", "ANSI/ESD S20.20"},
	}
}

// Document is a rendered quote or invoice offered to the user as a download.
// It is ephemeral: once rendered, no further lifecycle exists.
type Document struct {
	Ref      string
	Filename string
	Content  []byte
}

// lineItem is the document-level view of a cart or order entry.
type lineItem struct {
	Name     string
	SKU      string
	Price    int64
	Quantity int
}

// Generator renders carts and orders into printable PDF documents.
type Generator struct {
	cfg Config
}

// NewGenerator creates a document generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.BrandName == "" {
		cfg = DefaultConfig()
	}
	return &Generator{cfg: cfg}
}

// Quote renders the live cart into a pre-purchase quote. The reference number
// is derived from the current timestamp so rapid repeated generations in the
// same session never collide; the quote is a client-convenience artifact, not
// a system of record.
func (g *Generator) Quote(cart *domain.Cart, now time.Time) (*Document, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrNoLineItems
	}

	items := make([]lineItem, len(cart.Items))
	for i, it := range cart.Items {
		items[i] = lineItem{Name: it.Name, SKU: it.SKU, Price: it.Price, Quantity: it.Quantity}
	}

	ref := fmt.Sprintf("RTQ-%d", now.UnixMilli())
	validUntil := now.AddDate(0, 0, QuoteValidityDays)

	content, err := g.render(renderInput{
		docType:    "Quotation",
		ref:        ref,
		issueDate:  now,
		validUntil: &validUntil,
		items:      items,
		subtotal:   cart.TotalAmount(),
		shipping:   "Calculated at checkout",
		total:      cart.TotalAmount(),
		currency:   cart.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("render quote: %w", err)
	}

	documentsGenerated.WithLabelValues("quote").Inc()

	return &Document{
		Ref:      ref,
		Filename: fmt.Sprintf("%s_Quote_%s.pdf", g.cfg.BrandName, ref),
		Content:  content,
	}, nil
}

// Invoice renders a confirmed order into a post-purchase invoice. The backend
// order ID is authoritative and doubles as the reference number.
func (g *Generator) Invoice(order *domain.Order) (*Document, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, ErrNoLineItems
	}

	items := make([]lineItem, len(order.Items))
	for i, it := range order.Items {
		items[i] = lineItem{Name: it.Name, SKU: it.SKU, Price: it.Price, Quantity: it.Quantity}
	}

	subtotal := order.SubtotalAmount
	if subtotal == 0 {
		for _, it := range order.Items {
			subtotal += it.LineTotal()
		}
	}
	total := order.TotalAmount
	if total == 0 {
		total = subtotal + order.ShippingAmount
	}

	content, err := g.render(renderInput{
		docType:   "Invoice",
		ref:       order.ID,
		issueDate: order.CreatedAt,
		items:     items,
		subtotal:  subtotal,
		shipping:  formatCents(order.ShippingAmount, order.Currency),
		total:     total,
		currency:  order.Currency,
		billTo:    order.BillingAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}

	documentsGenerated.WithLabelValues("invoice").Inc()

	return &Document{
		Ref:      order.ID,
		Filename: fmt.Sprintf("%s_Invoice_%s.pdf", g.cfg.BrandName, order.ID),
		Content:  content,
	}, nil
}

type renderInput struct {
	docType    string
	ref        string
	issueDate  time.Time
	validUntil *time.Time
	items      []lineItem
	subtotal   int64
	shipping   string
	total      int64
	currency   string
	billTo     *domain.Address
}

func (g *Generator) render(in renderInput) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	// Core fonts are cp1252; every user-visible string goes through the
	// translator so currency symbols and non-ASCII product names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header block: brand, document type, reference, dates.
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(110, 10, tr(g.cfg.BrandName), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(in.docType), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Reference: "+in.ref), "", 1, "R", false, 0, "")
	pdf.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issue date: "+in.issueDate.Format("2006-01-02"), "", 1, "R", false, 0, "")
	if in.validUntil != nil {
		pdf.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, "Valid until: "+in.validUntil.Format("2006-01-02"), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Sender identity block.
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range g.cfg.CompanyLines {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	// Bill-to block for invoices.
	if in.billTo != nil {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, 5, "Bill to:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(in.billTo.FullName), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr(in.billTo.AddressLine), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s, %s %s, %s", in.billTo.City, in.billTo.State, in.billTo.PostalCode, in.billTo.Country)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	// Line-item table.
	colWidths := []float64{12, 88, 20, 35, 35}
	headers := []string{"#", "Item", "Qty", "Unit price", "Line total"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(colWidths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, item := range in.items {
		label := item.Name
		if item.SKU != "" {
			label += "  (" + item.SKU + ")"
		}
		pdf.CellFormat(colWidths[0], 7, strconv.Itoa(i+1), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 7, tr(label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], 7, strconv.Itoa(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 7, tr(formatCents(item.Price, in.currency)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[4], 7, tr(formatCents(item.Price*int64(item.Quantity), in.currency)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	// Totals footer.
	labelWidth := colWidths[0] + colWidths[1] + colWidths[2] + colWidths[3]
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(labelWidth, 7, "Subtotal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[4], 7, tr(formatCents(in.subtotal, in.currency)), "1", 1, "R", false, 0, "")
	pdf.CellFormat(labelWidth, 7, "Shipping", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[4], 7, tr(in.shipping), "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelWidth, 7, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[4], 7, tr(formatCents(in.total, in.currency)), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	// Legal terms block.
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(0, 5, "Terms & Conditions", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, term := range g.cfg.LegalTerms {
		pdf.MultiCell(0, 4, tr(term), "", "L", false)
	}
	pdf.Ln(3)

	// Compliance identifier strip.
	pdf.SetFont("Helvetica", "I", 8)
	strip := ""
	for i, code := range g.cfg.CertCodes {
		if i > 0 {
			strip += "   |   "
		}
		strip += code
	}
	pdf.CellFormat(0, 5, tr(strip), "T", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatCents renders a price in cents as a currency string, e.g. 1234567 ->
// "$12,345.67" for USD.
func formatCents(cents int64, currency string) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, d)
	}

	symbol := currency + " "
	switch currency {
	case "USD", "":
		symbol = "$"
	case "EUR":
		symbol = "€"
	case "GBP":
		symbol = "£"
	}

	sign := ""
	if negative {
		sign = "-"
	}

	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, string(grouped), frac)
}
