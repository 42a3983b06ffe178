// Package classify decides, from a statement line's description and signed
// amount alone, which budget category the line belongs to, whether it is
// income or an expense, whether the expense is a recurring (fixed) one, and
// how it was paid. The functions are pure: all keyword tables come in as
// arguments and no call can fail.
package classify

import (
	"strings"

	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/domain"
)

// FallbackCategory is used when no category rule matches an expense.
const FallbackCategory = "Necessidade"

// IncomeCategory is the single category for money coming in.
const IncomeCategory = "Entrada"

// Classify maps a description and signed amount to (category, nature, fixed).
//
// The checks run in a strict order that must not be reordered:
//  1. a positive amount, or an income marker in the description, makes the
//     line income; the sign is authoritative and overrides every expense
//     keyword;
//  2. the fixed-expense keyword list is matched against a normalized
//     description (lowercased, spaces/periods/hyphens stripped on both sides);
//  3. the category rules are scanned in declared order against the merely
//     lowercased description, first match wins;
//  4. anything left falls back to Necessidade, keeping the fixed flag from
//     step 2.
func Classify(rules config.Rules, description string, amount float64) (string, domain.Nature, bool) {
	desc := strings.ToLower(description)

	if amount > 0 || containsAny(desc, rules.IncomeMarkers) {
		return IncomeCategory, domain.NatureIncome, false
	}

	normalized := normalize(desc)
	fixed := false
	for _, kw := range rules.FixedKeywords {
		if strings.Contains(normalized, normalize(kw)) {
			fixed = true
			break
		}
	}

	for _, rule := range rules.Categories {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, strings.ToLower(kw)) {
				return rule.Name, domain.NatureExpense, fixed
			}
		}
	}

	return FallbackCategory, domain.NatureExpense, fixed
}

// PaymentMethod infers how a transaction was paid. "pix" beats "cartao" when
// both appear; anything unrecognized defaults to Pix.
func PaymentMethod(description string) domain.PaymentMethod {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "pix"):
		return domain.PaymentPix
	case strings.Contains(desc, "cartao"), strings.Contains(desc, "credito"):
		return domain.PaymentCard
	default:
		return domain.PaymentPix
	}
}

// normalize strips the punctuation that bank statements sprinkle into
// merchant names. Accents are left alone on purpose: matching is byte-level.
func normalize(s string) string {
	r := strings.NewReplacer(" ", "", ".", "", "-", "")
	return r.Replace(s)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
