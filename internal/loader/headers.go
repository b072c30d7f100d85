package loader

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"glucoreport/pkg/contracts/domain"
)

// headerAliases maps normalized header names to recognized columns.
var headerAliases = map[string]domain.Column{
	"fecha": domain.ColumnDate,
	"date":  domain.ColumnDate,

	"hora": domain.ColumnTime,
	"time": domain.ColumnTime,

	"hidratos(g)":      domain.ColumnCarbs,
	"hidratos":         domain.ColumnCarbs,
	"carbohidratos(g)": domain.ColumnCarbs,
	"carbohydrates(g)": domain.ColumnCarbs,
	"carbohydrates":    domain.ColumnCarbs,
	"carbs(g)":         domain.ColumnCarbs,
	"carbs":            domain.ColumnCarbs,

	"caminata(min)": domain.ColumnWalk,
	"caminata":      domain.ColumnWalk,
	"walk(min)":     domain.ColumnWalk,
	"walk":          domain.ColumnWalk,

	"sueno(h)": domain.ColumnSleep,
	"sueno":    domain.ColumnSleep,
	"sleep(h)": domain.ColumnSleep,
	"sleep":    domain.ColumnSleep,

	"glucosa(mg/dl)": domain.ColumnGlucose,
	"glucosa":        domain.ColumnGlucose,
	"glucose(mg/dl)": domain.ColumnGlucose,
	"glucose":        domain.ColumnGlucose,
}

// NormalizeHeader folds case, strips accents and removes all whitespace.
func NormalizeHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	folded = strings.TrimPrefix(folded, "\ufeff")
	folded = strings.ToLower(folded)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// mapHeader returns column positions for the recognized headers. The first
// occurrence of a column wins.
func mapHeader(header []string) map[domain.Column]int {
	positions := make(map[domain.Column]int)
	for i, h := range header {
		col, ok := headerAliases[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := positions[col]; !seen {
			positions[col] = i
		}
	}
	return positions
}
