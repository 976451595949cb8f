// Package classify maps free-text punch comments onto a fixed category set.
package classify

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mkoziy/workforce/warehouse/internal/normalize"
)

const (
	// NA is returned for null or placeholder comments.
	NA = "NA"
	// Other is returned for text that matches no category.
	Other = "OTHER"

	segmentSep = "|"
	labelSep   = ", "
)

// Category is one output label and the keywords that select it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CompoundRule is a fallback applied after keyword matching. When Whole is
// set the segment must equal Anchor; otherwise it must contain Anchor and
// at least one of AnyOf.
type CompoundRule struct {
	Anchor   string   `yaml:"anchor"`
	AnyOf    []string `yaml:"any_of"`
	Whole    bool     `yaml:"whole"`
	Category string   `yaml:"category"`
}

// Classifier is immutable after New and safe for concurrent use.
type Classifier struct {
	categories []Category
	rules      []CompoundRule
	exact      map[string]string
}

// New builds a classifier. Category order is the substring tie-break.
func New(categories []Category, rules []CompoundRule) *Classifier {
	c := &Classifier{exact: make(map[string]string)}
	for _, cat := range categories {
		name := fold(cat.Name)
		kws := make([]string, 0, len(cat.Keywords))
		for _, kw := range cat.Keywords {
			kw = fold(kw)
			if kw == "" {
				continue
			}
			kws = append(kws, kw)
			if _, seen := c.exact[kw]; !seen {
				c.exact[kw] = name
			}
		}
		c.categories = append(c.categories, Category{Name: name, Keywords: kws})
	}
	for _, r := range rules {
		anyOf := make([]string, len(r.AnyOf))
		for i, a := range r.AnyOf {
			anyOf[i] = fold(a)
		}
		c.rules = append(c.rules, CompoundRule{
			Anchor:   fold(r.Anchor),
			AnyOf:    anyOf,
			Whole:    r.Whole,
			Category: fold(r.Category),
		})
	}
	return c
}

// Categories returns the category names in match order.
func (c *Classifier) Categories() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Classify returns a category, a comma-joined set of categories for
// pipe-delimited input, Other, or NA.
func (c *Classifier) Classify(text *string) string {
	v, ok := normalize.Clean(text)
	if !ok {
		return NA
	}
	v = fold(v)

	found := make(map[string]struct{})
	nonEmpty := false
	for _, seg := range strings.Split(v, segmentSep) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		nonEmpty = true
		if cat, ok := c.match(seg); ok {
			found[cat] = struct{}{}
		}
	}

	switch {
	case len(found) > 0:
		return join(found)
	case nonEmpty:
		return Other
	default:
		return NA
	}
}

func (c *Classifier) match(seg string) (string, bool) {
	if cat, ok := c.exact[seg]; ok {
		return cat, true
	}
	for _, cat := range c.categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(seg, kw) {
				return cat.Name, true
			}
		}
	}
	for _, r := range c.rules {
		if r.matches(seg) {
			return r.Category, true
		}
	}
	return "", false
}

func (r CompoundRule) matches(seg string) bool {
	if r.Whole {
		return seg == r.Anchor
	}
	if !strings.Contains(seg, r.Anchor) {
		return false
	}
	for _, a := range r.AnyOf {
		if strings.Contains(seg, a) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(s)))
}

func join(set map[string]struct{}) string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, labelSep)
}
