package catalog

import (
	"regexp"
	"strconv"
)

// Kind is the normalized category of a quiz title.
type Kind string

const (
	KindSet     Kind = "set"
	KindCapsule Kind = "capsule"
	KindOther   Kind = "other"
)

// Title is the single parse of a free-text quiz title.
type Title struct {
	Display string `json:"normalizedTitle"`
	Kind    Kind   `json:"type"`
	Number  int    `json:"number"`
}

type family struct {
	kind     Kind
	label    string
	patterns []*regexp.Regexp
}

// Families are tried in order and the first matching pattern wins, so "set"
// shapes take priority over "capsule" shapes.
var families = []family{
	{
		kind:  KindSet,
		label: "Set",
		patterns: compile(
			`(?i)set\s*[-_]?\s*(\d+)`,
			`(?i)(\d+)\s*set`,
			`(?i)s\s*[-_]?\s*(\d+)`,
		),
	},
	{
		kind:  KindCapsule,
		label: "Capsule",
		patterns: compile(
			`(?i)capsule\s*[-_]?\s*(\d+)`,
			`(?i)cap\s*[-_]?\s*(\d+)`,
			`(?i)(\d+)\s*capsule`,
			`(?i)(\d+)\s*cap`,
			`(?i)c\s*[-_]?\s*(\d+)`,
			`(?i)daily\s*capsule\s*[-_]?\s*(\d+)`,
			`(?i)daily\s*dose\s*[-_]?\s*(\d+)`,
		),
	},
}

var bareNumber = regexp.MustCompile(`(\d+)`)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// ParseTitle classifies a title and extracts its ordinal in one pass.
// Titles outside both families keep their text and sort by the first integer they contain.
func ParseTitle(title string) Title {
	if title == "" {
		return Title{Display: title, Kind: KindOther}
	}
	for _, f := range families {
		for _, p := range f.patterns {
			m := p.FindStringSubmatch(title)
			if m == nil {
				continue
			}
			return Title{
				Display: f.label + "-" + m[1],
				Kind:    f.kind,
				Number:  atoi(m[1]),
			}
		}
	}
	out := Title{Display: title, Kind: KindOther}
	if m := bareNumber.FindStringSubmatch(title); m != nil {
		out.Number = atoi(m[1])
	}
	return out
}

// SortKey returns the ordinal used to order quizzes, 0 when the title has none.
func SortKey(title string) int {
	return ParseTitle(title).Number
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
