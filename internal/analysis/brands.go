package analysis

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed brand_aliases.yaml
var aliasYAML []byte

// Normalization regexes compiled once at package init.
var (
	reCorpSuffix    = regexp.MustCompile(`(?i)[\s,]*\b(inc\.?|llc|ltd\.?|corp\.?|co\.?)$`)
	reTrailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	reListSep       = regexp.MustCompile(`[;,]`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// Competitor entries the judge uses to mean "nobody".
var placeholderNames = map[string]bool{
	"none": true, "n/a": true, "na": true, "null": true, "undefined": true,
	"other": true, "others": true, "none explicitly": true, "none mentioned": true,
}

const maxBrandNameLen = 40

var defaultAliases = mustLoadAliases(aliasYAML)

type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// loadAliases parses the alias table into a lookup from match key to
// canonical spelling.
func loadAliases(raw []byte) (map[string]string, error) {
	var f aliasFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing brand aliases: %w", err)
	}
	out := make(map[string]string)
	for canonical, variants := range f.Aliases {
		out[matchKey(canonical)] = canonical
		for _, v := range variants {
			out[matchKey(v)] = canonical
		}
	}
	return out, nil
}

func mustLoadAliases(raw []byte) map[string]string {
	m, err := loadAliases(raw)
	if err != nil {
		panic(err)
	}
	return m
}

// Normalizer consolidates spelling variants of brand names. Caller-supplied
// competitor hints win over the built-in alias table.
type Normalizer struct {
	aliases map[string]string
	hints   map[string]string
}

// NewNormalizer returns a Normalizer using the built-in aliases plus hints.
func NewNormalizer(hints []string) *Normalizer {
	n := &Normalizer{aliases: defaultAliases, hints: make(map[string]string, len(hints))}
	for _, h := range hints {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		n.hints[matchKey(stripCorpSuffix(h))] = h
	}
	return n
}

// Normalize returns the canonical display form of name, or "" when name is
// empty or a placeholder.
func (n *Normalizer) Normalize(name string) string {
	name = reWhitespace.ReplaceAllString(strings.TrimSpace(name), " ")
	name = strings.TrimSpace(reTrailingParen.ReplaceAllString(name, ""))
	name = strings.Trim(name, `"'*.`)
	if name == "" || placeholderNames[strings.ToLower(name)] {
		return ""
	}

	name = stripCorpSuffix(name)
	key := matchKey(name)
	if key == "" {
		return ""
	}
	if h, ok := n.hints[key]; ok {
		return h
	}
	if a, ok := n.aliases[key]; ok {
		return a
	}
	return capitalizeWords(name)
}

// Competitors splits a judge competitors_mentioned value into normalized,
// de-duplicated names in first-seen order.
func (n *Normalizer) Competitors(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range reListSep.Split(raw, -1) {
		name := n.Normalize(part)
		if utf8.RuneCountInString(name) <= 1 || len(name) > maxBrandNameLen {
			continue
		}
		k := strings.ToLower(name)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, name)
	}
	return out
}

// SameBrand reports whether a and b normalize to the same brand.
func SameBrand(a, b string) bool {
	return strings.EqualFold(a, b)
}

func stripCorpSuffix(s string) string {
	return strings.TrimSpace(reCorpSuffix.ReplaceAllString(s, ""))
}

// matchKey lowercases s and drops everything but letters and digits.
func matchKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// capitalizeWords upper-cases the first letter of each word and leaves the
// rest untouched, so "hubSpot crm" becomes "HubSpot Crm".
func capitalizeWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// capitalizeFirst upper-cases only the first letter of s.
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
