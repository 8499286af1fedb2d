package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Payment-method tags as the field staff types them: "Efectivo" for cash,
// "Consignación" for a bank deposit / wire transfer. Matching is substring,
// case- and diacritic-insensitive, so "CONSIGNACIÓN bancaria" still counts.
const (
	cashMethodTag = "efectivo"
	wireMethodTag = "consignacion"
)

// foldDiacritics decomposes to NFD, strips combining marks, and recomposes.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeMethod(method string) string {
	folded, _, err := transform.String(foldDiacritics, method)
	if err != nil {
		folded = method
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func collectedBreakdown(days []DayInput) Breakdown {
	b := Breakdown{Cash: decimal.Zero, WireTransfer: decimal.Zero}
	for _, day := range days {
		if day.Facts == nil {
			continue
		}
		for _, p := range day.Facts.Payments {
			addToBreakdown(&b, p)
		}
	}
	return b
}

func addToBreakdown(b *Breakdown, p domain.Payment) {
	method := normalizeMethod(p.Method)
	switch {
	case strings.Contains(method, wireMethodTag):
		b.WireTransfer = b.WireTransfer.Add(p.Amount)
	case strings.Contains(method, cashMethodTag):
		b.Cash = b.Cash.Add(p.Amount)
	}
	// Unknown or missing methods stay out of both sub-buckets; they are still
	// part of the day's collected total.
}
