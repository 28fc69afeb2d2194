package domain

import "sort"

// taxonomy is the fixed category set with their optional subcategories.
// Categories and keywords are Russian because diary entries are.
var taxonomy = map[string][]string{
	"спорт":        {"бодибилдинг", "кардио", "йога"},
	"учёба":        {"математика", "программирование", "языки"},
	"готовка":      nil,
	"работа":       nil,
	"творчество":   {"музыка", "рисование"},
	"саморазвитие": nil,
	"социальное":   nil,
	"дом":          nil,
}

// Categories returns the category names in stable sorted order.
func Categories() []string {
	out := make([]string, 0, len(taxonomy))
	for c := range taxonomy {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c string) bool {
	_, ok := taxonomy[c]
	return ok
}

// Subcategories returns the known subcategories for a category.
// Free-form subcategories outside this list are still accepted.
func Subcategories(category string) []string {
	return taxonomy[category]
}
