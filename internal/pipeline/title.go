package pipeline

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatFileNameAsTitle arma un título legible a partir del nombre de archivo:
// sin extensión, "-" y "_" como espacios, corte en bordes camelCase y cada
// palabra capitalizada. Espacios repetidos se colapsan. La extensión se quita
// aunque sea todo el nombre (".pdf" -> "").
//
//	quarterly_report-2024.pdf -> Quarterly Report 2024
//	camelCaseName.pdf         -> Camel Case Name
func FormatFileNameAsTitle(fileName string) string {
	name := strings.TrimSpace(fileName)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	var b strings.Builder
	var prev rune
	for i, r := range name {
		if i > 0 && unicode.IsLower(prev) && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
