package models

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Total is the summed deal value of one currency
type Total struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

func (t Total) String() string {
	return strings.TrimSpace(t.Amount.StringFixed(2) + " " + t.Currency)
}

// ColumnTotals sums the deal values of items per currency, sorted by
// currency. Tasks and zero-value deals contribute nothing.
func ColumnTotals(items []OrderedItem) []Total {
	sums := make(map[string]decimal.Decimal)
	for _, it := range items {
		if it.Payload.Kind != KindDeal || it.Payload.Value.IsZero() {
			continue
		}
		cur := it.Payload.Currency
		sums[cur] = sums[cur].Add(it.Payload.Value)
	}

	totals := make([]Total, 0, len(sums))
	for cur, amount := range sums {
		totals = append(totals, Total{Currency: cur, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })
	return totals
}
