package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceLine is a single billed item.
type InvoiceLine struct {
	Description string
	AmountMinor int64
}

// InvoiceDocument carries everything printed on a subscription invoice.
type InvoiceDocument struct {
	Number      string
	IssuedAt    time.Time
	Customer    string
	Email       string
	Currency    string
	PaymentRef  string
	Lines       []InvoiceLine
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Total sums the line amounts in minor units.
func (d InvoiceDocument) Total() int64 {
	var total int64
	for _, line := range d.Lines {
		total += line.AmountMinor
	}
	return total
}

// FormatMinor renders minor units as a decimal amount, e.g. 99900 -> "999.00".
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// InvoiceRenderer produces A4 invoice PDFs.
type InvoiceRenderer struct {
	issuer string
}

// NewInvoiceRenderer builds a renderer printing issuer in the header.
func NewInvoiceRenderer(issuer string) *InvoiceRenderer {
	if issuer == "" {
		issuer = "Career Services"
	}
	return &InvoiceRenderer{issuer: issuer}
}

// Render returns the PDF bytes for doc.
func (r *InvoiceRenderer) Render(doc InvoiceDocument) ([]byte, error) {
	if doc.Number == "" {
		return nil, fmt.Errorf("invoice number required")
	}
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("invoice %s has no lines", doc.Number)
	}
	currency := doc.Currency
	if currency == "" {
		currency = "INR"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetTitle("Invoice "+doc.Number, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.issuer, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Invoice: "+doc.Number, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+doc.IssuedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	if doc.PaymentRef != "" {
		pdf.CellFormat(0, 6, "Payment: "+doc.PaymentRef, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, "Billed to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, doc.Customer, "", 1, "L", false, 0, "")
	if doc.Email != "" {
		pdf.CellFormat(0, 6, doc.Email, "", 1, "L", false, 0, "")
	}
	if !doc.PeriodStart.IsZero() {
		period := fmt.Sprintf("Service period: %s to %s", doc.PeriodStart.Format("2006-01-02"), doc.PeriodEnd.Format("2006-01-02"))
		pdf.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Amount ("+currency+")", "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Lines {
		pdf.CellFormat(130, 7, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, FormatMinor(line.AmountMinor), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, FormatMinor(doc.Total()), "1", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	return buf.Bytes(), nil
}
