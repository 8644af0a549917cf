// Package department canonicalises free-form department names so that
// courses, venues, timetables and users of one department always match.
package department

import (
	"sort"
	"strings"
)

var canonical = []string{
	"accounting",
	"actuarial science",
	"agricultural engineering",
	"architecture",
	"artificial intelligence",
	"astronomy",
	"biology",
	"biomedical engineering",
	"business administration",
	"chemical engineering",
	"chemistry",
	"civil engineering",
	"computer engineering",
	"computer science",
	"cybersecurity",
	"data science",
	"dentistry",
	"economics",
	"education",
	"electrical engineering",
	"environmental science",
	"finance",
	"fine arts",
	"geography",
	"geology",
	"graphic design",
	"history",
	"human resources",
	"information technology",
	"international relations",
	"journalism",
	"law",
	"linguistics",
	"literature",
	"marketing",
	"mass communication",
	"mathematics",
	"mechanical engineering",
	"medicine",
	"music",
	"nursing",
	"petroleum engineering",
	"pharmacy",
	"philosophy",
	"physics",
	"political science",
	"psychology",
	"sociology",
	"software engineering",
	"statistics",
	"theater",
	"urban planning",
	"veterinary medicine",
}

var aliases = map[string]string{
	"cs": "computer science", "computing": "computer science", "comp sci": "computer science",
	"csci": "computer science", "cse": "computer science",
	"se": "software engineering", "ce": "computer engineering", "it": "information technology",
	"ai": "artificial intelligence",

	"electrical": "electrical engineering", "ee": "electrical engineering",
	"mechanical": "mechanical engineering", "me": "mechanical engineering",
	"civil": "civil engineering", "chemical": "chemical engineering",
	"petroleum": "petroleum engineering", "agricultural": "agricultural engineering",
	"biomedical": "biomedical engineering",

	"business": "business administration", "ba": "business administration", "mba": "business administration",
	"acc": "accounting", "econ": "economics", "fin": "finance", "mkt": "marketing", "hr": "human resources",

	"math": "mathematics", "chem": "chemistry", "bio": "biology", "psych": "psychology",
	"soc": "sociology", "poli sci": "political science", "ir": "international relations",

	"med": "medicine", "pharm": "pharmacy", "vet": "veterinary medicine",

	"arch": "architecture", "theatre": "theater", "mass comm": "mass communication",

	"edu": "education", "lit": "literature", "phil": "philosophy", "geo": "geography",
	"env sci": "environmental science", "astro": "astronomy", "stats": "statistics",
	"actuarial": "actuarial science",
}

var known = func() map[string]struct{} {
	set := make(map[string]struct{}, len(canonical))
	for _, name := range canonical {
		set[name] = struct{}{}
	}
	return set
}()

// Option is a selectable department for clients.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Normalize lower-cases, collapses whitespace and resolves aliases. Unknown
// names are returned in their normalised form so new departments still work.
func Normalize(raw string) string {
	name := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if name == "" {
		return ""
	}
	if _, ok := known[name]; ok {
		return name
	}
	if mapped, ok := aliases[name]; ok {
		return mapped
	}
	return name
}

// IsKnown reports whether raw resolves to a recognised department.
func IsKnown(raw string) bool {
	_, ok := known[Normalize(raw)]
	return ok
}

// Label renders a canonical name in title case.
func Label(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// Options lists every recognised department sorted by value.
func Options() []Option {
	names := append([]string(nil), canonical...)
	sort.Strings(names)

	options := make([]Option, 0, len(names))
	for _, name := range names {
		options = append(options, Option{Value: name, Label: Label(name)})
	}
	return options
}
