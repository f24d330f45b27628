package domain

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match strategies reported by Resolver.Resolve.
const (
	MatchExact    = "exact"
	MatchSuffix   = "suffix"
	MatchNumbered = "numbered"
	MatchPartial  = "partial"
	MatchTokens   = "tokens"
)

const (
	maxSuggestions = 3
	// numbered divisions such as 역삼1동 run from 1 to this bound
	maxDivisionNumber = 9
)

// cityAliases expands the short names people type into the 1단계 names used
// by the grid sheet.
var cityAliases = map[string]string{
	"서울": "서울특별시",
	"부산": "부산광역시",
	"대구": "대구광역시",
	"인천": "인천광역시",
	"광주": "광주광역시",
	"대전": "대전광역시",
	"울산": "울산광역시",
	"세종": "세종특별자치시",
}

// Resolution is the outcome of resolving free text against a RegionMap.
type Resolution struct {
	Region      string         `json:"region,omitempty"`
	Coord       GridCoordinate `json:"coord"`
	Match       string         `json:"match,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// Found reports whether a region was matched.
func (r Resolution) Found() bool { return r.Match != "" }

// Resolver answers region lookups against a fixed RegionMap. It is safe for
// concurrent use; the map must not be modified after construction.
type Resolver struct {
	regions *RegionMap
	byNorm  map[string]string
	// keys sorted longest first, ties in map order
	longest []string
	normed  map[string]string
}

// NewResolver indexes m for lookups.
func NewResolver(m *RegionMap) *Resolver {
	keys := m.Keys()
	r := &Resolver{
		regions: m,
		byNorm:  make(map[string]string, len(keys)),
		normed:  make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		n := normalize(k)
		r.normed[k] = n
		if _, ok := r.byNorm[n]; !ok {
			r.byNorm[n] = k
		}
	}
	r.longest = keys
	sort.SliceStable(r.longest, func(i, j int) bool {
		return len(r.longest[i]) > len(r.longest[j])
	})
	return r
}

// Len returns the number of indexed regions.
func (r *Resolver) Len() int { return r.regions.Len() }

// Resolve matches query against the region keys, trying in turn: exact match
// ignoring whitespace (with city aliases expanded), the shortest key ending
// with the query, a numbered division for a bare 동/가/리 name ("역삼동" finds
// "역삼1동"), the longest key containing the query, and the longest key
// containing every query token. When nothing matches, the result carries up to
// three scored suggestions.
func (r *Resolver) Resolve(query string) Resolution {
	tokens := expandAliases(strings.Fields(query))
	if len(tokens) == 0 {
		return Resolution{}
	}
	q := normalize(strings.Join(tokens, ""))

	if k, ok := r.byNorm[q]; ok {
		return r.found(k, MatchExact)
	}
	// Also try the text as typed, so "서울 중구" still hits a sheet that uses
	// the short city name.
	if k, ok := r.byNorm[normalize(query)]; ok {
		return r.found(k, MatchExact)
	}

	// Shortest key ending with the query: "역삼1동" resolves to the least
	// specific region that names it.
	var best string
	for _, k := range r.longest {
		if strings.HasSuffix(r.normed[k], q) && (best == "" || len(k) < len(best)) {
			best = k
		}
	}
	if best != "" {
		return r.found(best, MatchSuffix)
	}

	if k, ok := r.numberedDivision(tokens); ok {
		return r.found(k, MatchNumbered)
	}

	for _, k := range r.longest {
		if strings.Contains(r.normed[k], q) {
			return r.found(k, MatchPartial)
		}
	}

	if len(tokens) > 1 {
		for _, k := range r.longest {
			if containsAll(r.normed[k], tokens) {
				return r.found(k, MatchTokens)
			}
		}
	}

	return Resolution{Suggestions: r.suggest(query, tokens[len(tokens)-1])}
}

func (r *Resolver) found(key, match string) Resolution {
	c, _ := r.regions.Get(key)
	return Resolution{Region: key, Coord: c, Match: match}
}

// numberedDivision expands a last token such as "역삼동" into 역삼1동..역삼9동
// and returns the first key, in map order, that ends with a candidate and
// contains the remaining tokens. Tokens holding a digit are not expanded.
func (r *Resolver) numberedDivision(tokens []string) (string, bool) {
	last := []rune(tokens[len(tokens)-1])
	if len(last) < 2 || strings.IndexFunc(string(last), unicode.IsDigit) >= 0 {
		return "", false
	}
	suffix := last[len(last)-1]
	if suffix != '동' && suffix != '가' && suffix != '리' {
		return "", false
	}
	base := normalize(string(last[:len(last)-1]))
	rest := tokens[:len(tokens)-1]
	keys := r.regions.Keys()
	for i := 1; i <= maxDivisionNumber; i++ {
		cand := base + strconv.Itoa(i) + string(suffix)
		for _, k := range keys {
			if strings.HasSuffix(r.normed[k], cand) && containsAll(r.normed[k], rest) {
				return k, true
			}
		}
	}
	return "", false
}

type scoredKey struct {
	key   string
	score float64
}

// suggest ranks every key against the query: +10 when the key contains it,
// +5 when the key ends with it, +3 per query word found inside a key word,
// minus half the length difference. The top three with a positive score are
// returned. When none score, keys ending with the last token are offered.
func (r *Resolver) suggest(query, last string) []string {
	q := normalize(query)
	qLen := utf8.RuneCountInString(q)
	words := splitWords(query)

	keys := r.regions.Keys()
	scored := make([]scoredKey, 0, len(keys))
	for _, k := range keys {
		nk := r.normed[k]
		var score float64
		if strings.Contains(nk, q) {
			score += 10
		}
		if strings.HasSuffix(nk, q) {
			score += 5
		}
		keyWords := splitWords(k)
		for _, w := range words {
			nw := normalize(w)
			for _, kw := range keyWords {
				if strings.Contains(normalize(kw), nw) {
					score += 3
					break
				}
			}
		}
		diff := utf8.RuneCountInString(nk) - qLen
		if diff < 0 {
			diff = -diff
		}
		score -= float64(diff) * 0.5
		scored = append(scored, scoredKey{key: k, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	var out []string
	for i := 0; i < len(scored) && i < maxSuggestions; i++ {
		if scored[i].score > 0 {
			out = append(out, scored[i].key)
		}
	}
	if len(out) > 0 {
		return out
	}

	tail := normalize(last)
	for _, k := range keys {
		if strings.HasSuffix(r.normed[k], tail) {
			out = append(out, k)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '·'
	})
}

func expandAliases(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if full, ok := cityAliases[t]; ok {
			out[i] = full
			continue
		}
		out[i] = t
	}
	return out
}

func containsAll(s string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(s, normalize(t)) {
			return false
		}
	}
	return true
}

// normalize drops whitespace and lower-cases letters.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
