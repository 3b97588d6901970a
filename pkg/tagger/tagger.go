// Package tagger derives note tags from raw text and from a concept graph.
package tagger

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/athapong/ontonote/pkg/ontology"
	mapset "github.com/deckarep/golang-set/v2"
)

// MaxKeywords caps ExtractKeywords.
const MaxKeywords = 10

// stopWords are Korean particles and filler words that make poor tags.
var stopWords = mapset.NewSet[string](
	"및", "등", "것", "수", "는", "을", "를", "이", "가", "의",
	"에", "로", "와", "과", "한", "하는", "있는", "되는",
)

// wordPattern matches a run of Unicode word characters.
var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Keyword is a word with its occurrence count.
type Keyword struct {
	Text  string
	Count int
	first int
}

// IsStopWord reports whether word is excluded from text tags.
func IsStopWord(word string) bool {
	return stopWords.Contains(strings.ToLower(word))
}

// ExtractTextTags splits text on whitespace, strips punctuation from each
// token, and keeps lowercased tokens longer than one character that are not
// stop words. Order is first occurrence.
func ExtractTextTags(text string) []string {
	out := newOrderedSet()
	for _, field := range strings.Fields(text) {
		word := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
				return r
			}
			return -1
		}, field)
		if utf8.RuneCountInString(word) <= 1 || IsStopWord(word) {
			continue
		}
		out.add(strings.ToLower(word))
	}
	return out.items
}

// TagsFromGraph returns every concept plus the target of every is_a and
// part_of relationship.
func TagsFromGraph(g *ontology.ConceptGraph) []string {
	out := newOrderedSet()
	for _, c := range g.Concepts() {
		out.add(c)
	}
	for _, r := range g.Relationships() {
		switch r.Kind() {
		case ontology.IsA, ontology.PartOf:
			out.add(r.Target)
		}
	}
	return out.items
}

// Keywords counts word runs in the lowercased text and returns the n most
// frequent. Ties keep first-occurrence order.
func Keywords(text string, n int) []Keyword {
	counts := make(map[string]*Keyword)
	var all []*Keyword
	for i, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if k, ok := counts[w]; ok {
			k.Count++
			continue
		}
		k := &Keyword{Text: w, Count: 1, first: i}
		counts[w] = k
		all = append(all, k)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	})

	if n > len(all) {
		n = len(all)
	}
	out := make([]Keyword, 0, n)
	for _, k := range all[:n] {
		out = append(out, *k)
	}
	return out
}

// ExtractKeywords returns the MaxKeywords most frequent words of text.
func ExtractKeywords(text string) []string {
	kws := Keywords(text, MaxKeywords)
	out := make([]string, len(kws))
	for i, k := range kws {
		out[i] = k.Text
	}
	return out
}

// Combine merges tag lists: graph tags first, then text tags, then keywords,
// dropping anything already present.
func Combine(textTags, graphTags, keywords []string) []string {
	out := newOrderedSet()
	for _, list := range [][]string{graphTags, textTags, keywords} {
		for _, t := range list {
			out.add(t)
		}
	}
	return out.items
}

// Tags runs the three extractors over text and g and combines the results.
func Tags(text string, g *ontology.ConceptGraph) []string {
	return Combine(ExtractTextTags(text), TagsFromGraph(g), ExtractKeywords(text))
}

type orderedSet struct {
	seen  mapset.Set[string]
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: mapset.NewThreadUnsafeSet[string](), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen.Add(v) {
		s.items = append(s.items, v)
	}
}
