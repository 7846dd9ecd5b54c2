package validation

// Question categories mirror the taxonomy offered by the submission form.
// "other" accepts free-form category text supplied by the visitor.
const (
	CategoryPrayer       = "prayer"
	CategoryFasting      = "fasting"
	CategoryZakat        = "zakat"
	CategoryHajj         = "hajj"
	CategoryMarriage     = "marriage"
	CategoryTransactions = "transactions"
	CategoryOther        = "other"
)

var knownCategories = map[string]struct{}{
	CategoryPrayer:       {},
	CategoryFasting:      {},
	CategoryZakat:        {},
	CategoryHajj:         {},
	CategoryMarriage:     {},
	CategoryTransactions: {},
	CategoryOther:        {},
}

// IsKnownCategory reports whether value is one of the fixed taxonomy values.
func IsKnownCategory(value string) bool {
	_, ok := knownCategories[value]
	return ok
}
