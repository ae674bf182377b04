// Package tags извлекает теги (бренд, модель, тип релиза, цвет) из
// заголовка и описания поста по статическим таблицам ключевых слов.
package tags

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Tags — результат извлечения. Пустые списки означают отсутствие совпадений.
type Tags struct {
	Brands []string `json:"brands"`
	Models []string `json:"models"`
	Types  []string `json:"types"`
	Colors []string `json:"colors"`
}

// ToMap приводит теги к форме, в которой они хранятся в посте.
func (t Tags) ToMap() map[string][]string {
	return map[string][]string{
		"brands": t.Brands,
		"models": t.Models,
		"types":  t.Types,
		"colors": t.Colors,
	}
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// wordPatterns кэширует скомпилированные регулярки по ключевым словам.
var (
	wordPatternsMu sync.Mutex
	wordPatterns   = map[string]*regexp.Regexp{}
)

// matchWord проверяет вхождение term в text по границам слова.
// Стандартный \b в Go работает только с ASCII, поэтому границы
// описаны явно через классы юникодных букв и цифр.
func matchWord(text, term string) bool {
	wordPatternsMu.Lock()
	re, ok := wordPatterns[term]
	if !ok {
		re = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(term) + `(?:$|[^\p{L}\p{N}])`)
		wordPatterns[term] = re
	}
	wordPatternsMu.Unlock()
	return re.MatchString(text)
}

// Extract извлекает теги из заголовка и контекста. Чистая функция:
// одинаковый вход всегда даёт одинаковый результат, списки без дублей.
func Extract(title, context string) Tags {
	text := strings.ToLower(title + " " + context)
	normalized := nonWordRe.ReplaceAllString(text, " ")

	result := Tags{
		Brands: []string{},
		Models: []string{},
		Types:  []string{},
		Colors: []string{},
	}

	for _, brand := range sortedKeys(brandKeywords) {
		for _, kw := range brandKeywords[brand] {
			if matchWord(normalized, kw) {
				result.Brands = append(result.Brands, brand)
				break
			}
		}
	}

	for _, model := range sortedKeys(modelKeywords) {
		for _, kw := range modelKeywords[model] {
			if matchWord(normalized, kw) {
				result.Models = append(result.Models, model)
				break
			}
		}
	}

	// Типы релизов ищутся по подстроке: среди ключей есть " x ",
	// который границами слова не выражается.
	for _, rt := range sortedKeys(releaseTypeKeywords) {
		for _, kw := range releaseTypeKeywords[rt] {
			if strings.Contains(text, kw) {
				result.Types = append(result.Types, rt)
				break
			}
		}
	}

	result.Colors = extractColors(text)
	return result
}

// extractColors находит упоминания цветов, включая составные фразы
// вида "triple black" и "triple/core white".
func extractColors(text string) []string {
	found := map[string]struct{}{}

	for term, canonical := range colorTerms {
		if matchWord(text, term) {
			found[canonical] = struct{}{}
		}
	}

	if strings.Contains(text, "triple black") {
		found["black"] = struct{}{}
	}
	if strings.Contains(text, "triple white") || strings.Contains(text, "core white") {
		found["white"] = struct{}{}
	}

	colors := make([]string, 0, len(found))
	for c := range found {
		colors = append(colors, c)
	}
	sort.Strings(colors)
	return colors
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// hashtagCache кэширует подбор хэштегов по (title, category).
var (
	hashtagCacheMu sync.Mutex
	hashtagCache   = map[string]string{}
)

// Hashtags подбирает строку хэштегов по заголовку и рубрике.
func Hashtags(title, category string) string {
	key := category + "\x00" + title
	hashtagCacheMu.Lock()
	if cached, ok := hashtagCache[key]; ok {
		hashtagCacheMu.Unlock()
		return cached
	}
	hashtagCacheMu.Unlock()

	result := lookupHashtags(strings.ToLower(title), category)

	hashtagCacheMu.Lock()
	if len(hashtagCache) < 1000 {
		hashtagCache[key] = result
	}
	hashtagCacheMu.Unlock()
	return result
}

func lookupHashtags(titleLower, category string) string {
	table, ok := hashtagTable[category]
	if !ok {
		return "#streetwear #style"
	}

	for _, brand := range sortedKeys(table) {
		if brand == "default" {
			continue
		}
		switch brand {
		case "offwhite":
			if strings.Contains(titleLower, "off-white") || strings.Contains(titleLower, "off white") {
				return table[brand]
			}
		default:
			if strings.Contains(titleLower, brand) {
				return table[brand]
			}
		}
	}
	return table["default"]
}

// FormatForDisplay строит русскоязычную сводку тегов для модерации.
func FormatForDisplay(tagMap map[string][]string) string {
	var lines []string

	if brands := tagMap["brands"]; len(brands) > 0 {
		titled := make([]string, len(brands))
		for i, b := range brands {
			titled[i] = titleCase(b)
		}
		lines = append(lines, "🏷 Бренд: "+strings.Join(titled, ", "))
	}

	if models := tagMap["models"]; len(models) > 0 {
		upper := make([]string, len(models))
		for i, m := range models {
			upper[i] = strings.ToUpper(m)
		}
		lines = append(lines, "👟 Модель: "+strings.Join(upper, ", "))
	}

	if types := tagMap["types"]; len(types) > 0 {
		titled := make([]string, len(types))
		for i, t := range types {
			if ru, ok := releaseTypeTitles[t]; ok {
				titled[i] = ru
			} else {
				titled[i] = titleCase(t)
			}
		}
		lines = append(lines, "📌 Тип: "+strings.Join(titled, ", "))
	}

	if colors := tagMap["colors"]; len(colors) > 0 {
		titled := make([]string, len(colors))
		for i, c := range colors {
			if ru, ok := colorTitles[c]; ok {
				titled[i] = ru
			} else {
				titled[i] = titleCase(c)
			}
		}
		lines = append(lines, "🎨 Цвет: "+strings.Join(titled, ", "))
	}

	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
