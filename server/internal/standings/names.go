package standings

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FullName joins first and last name and title-cases the result, so
// "ada LOVELACE" becomes "Ada Lovelace".
func FullName(first, last string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	return cases.Title(language.Und).String(name)
}
