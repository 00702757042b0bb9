package sales

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const receiptWidth = 40

// Receipt renders a plain-text ticket for a committed sale, sized for a
// 40-column thermal printer.
func Receipt(s *Sale) string {
	p := message.NewPrinter(language.Spanish)
	var b strings.Builder

	// Padding counts runes, not bytes, so accented names stay aligned.
	center := func(text string) {
		pad := (receiptWidth - utf8.RuneCountInString(text)) / 2
		if pad < 0 {
			pad = 0
		}
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(text)
		b.WriteByte('\n')
	}
	rule := func() {
		b.WriteString(strings.Repeat("-", receiptWidth))
		b.WriteByte('\n')
	}
	amount := func(label string, v float64) {
		value := p.Sprintf("$%.2f", v)
		gap := receiptWidth - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
		if gap < 1 {
			gap = 1
		}
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", gap))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	center("MOLECULA")
	center(s.Folio)
	center(s.CreatedAt.Format("02/01/2006 15:04"))
	rule()
	for _, line := range s.Lines {
		b.WriteString(p.Sprintf("%dx %s (%s)\n", line.Quantity, line.ProductName, line.SizeName))
		amount("", line.Subtotal)
	}
	rule()
	amount("Subtotal", s.Subtotal)
	if s.Discount > 0 {
		amount("Descuento", -s.Discount)
		if s.DiscountNote != nil && *s.DiscountNote != "" {
			b.WriteString("  ")
			b.WriteString(*s.DiscountNote)
			b.WriteByte('\n')
		}
	}
	amount("TOTAL", s.Total)
	if s.AmountTendered != nil {
		amount("Recibido", *s.AmountTendered)
	}
	if s.Change != nil {
		amount("Cambio", *s.Change)
	}
	rule()
	center("Atendido por " + s.SellerName)
	center(s.PaymentMethodName)
	center("Gracias por su compra")
	return b.String()
}
