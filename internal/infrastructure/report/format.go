package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/invoice"
)

const displayDateLayout = "Jan 2, 2006"

// FormatMoney renders an amount with its currency code and thousands
// separators, e.g. "USD 1,234.50". Amounts are never converted.
func FormatMoney(amount float64, currency entity.Currency) string {
	s := decimal.NewFromFloat(invoice.Round2(amount)).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	return string(currency) + " " + sign + groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDate renders a date for documents; zero dates render as "-"
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(displayDateLayout)
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}
