package variants

import (
	"regexp"
	"strings"
)

// Option is one selectable value inside an option group. Image is set when
// the page shows a swatch for this value (typically only color-like groups).
type Option struct {
	Value string `json:"value"`
	Image string `json:"image,omitempty"`
}

// OptionGroup is one independently selectable product attribute dimension,
// e.g. "Color" or "Size". Option order is page order and is significant:
// it determines combination order and SKU suffixes.
type OptionGroup struct {
	Name    string   `json:"name"`
	Options []Option `json:"options"`
}

// Choice is a single (group, value) selection inside a combination.
type Choice struct {
	Group string `json:"group"`
	Value string `json:"value"`
	Image string `json:"image,omitempty"`
}

// Combination assigns exactly one option to every group, in group order.
type Combination struct {
	Choices []Choice `json:"choices"`
}

var skuStripRe = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// Normalize prepares raw option groups for enumeration: trims a trailing
// ":"-delimited suffix from group names, drops options with empty values,
// collapses duplicate values within a group (last seen wins), and removes
// groups left with no options.
func Normalize(groups []OptionGroup) []OptionGroup {
	out := make([]OptionGroup, 0, len(groups))
	for _, g := range groups {
		name := g.Name
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)

		seen := make(map[string]int)
		opts := make([]Option, 0, len(g.Options))
		for _, o := range g.Options {
			o.Value = strings.TrimSpace(o.Value)
			if o.Value == "" {
				continue
			}
			if i, ok := seen[o.Value]; ok {
				opts[i] = o
				continue
			}
			seen[o.Value] = len(opts)
			opts = append(opts, o)
		}

		if len(opts) == 0 {
			continue
		}
		out = append(out, OptionGroup{Name: name, Options: opts})
	}
	return out
}

// Generate computes the full Cartesian product across groups. The result is
// ordered: combinations of earlier groups vary slowest, options within a
// group keep page order. An empty group list yields nil, meaning the product
// has no variants.
//
// Cost is O(product of option counts) in both time and space; callers must
// expect this to be large for products with several big groups.
func Generate(groups []OptionGroup) []Combination {
	if len(groups) == 0 {
		return nil
	}

	// Iterative left fold; a recursive build would nest one frame per group
	// and complicate the ordering guarantee for no benefit.
	acc := make([]Combination, 0, len(groups[0].Options))
	for _, o := range groups[0].Options {
		acc = append(acc, Combination{Choices: []Choice{{Group: groups[0].Name, Value: o.Value, Image: o.Image}}})
	}

	for _, g := range groups[1:] {
		next := make([]Combination, 0, len(acc)*len(g.Options))
		for _, c := range acc {
			for _, o := range g.Options {
				choices := make([]Choice, len(c.Choices), len(c.Choices)+1)
				copy(choices, c.Choices)
				choices = append(choices, Choice{Group: g.Name, Value: o.Value, Image: o.Image})
				next = append(next, Combination{Choices: choices})
			}
		}
		acc = next
	}

	return acc
}

// RelationshipKey serializes the combination as "g1=v1|g2=v2|...". This is
// the join key between enumerated variant data and formatted rows; both
// sides must come from the same Combination value.
func (c Combination) RelationshipKey() string {
	var b strings.Builder
	for i, ch := range c.Choices {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(ch.Group)
		b.WriteByte('=')
		b.WriteString(ch.Value)
	}
	return b.String()
}

// SKUSuffix builds the per-combination SKU fragment: each chosen value with
// whitespace collapsed to "-" and all other non-alphanumerics stripped,
// joined with "-".
func (c Combination) SKUSuffix() string {
	parts := make([]string, 0, len(c.Choices))
	for _, ch := range c.Choices {
		v := strings.Join(strings.Fields(ch.Value), "-")
		v = skuStripRe.ReplaceAllString(v, "")
		parts = append(parts, v)
	}
	return strings.Join(parts, "-")
}

func (c Combination) String() string {
	return c.RelationshipKey()
}

// AggregateDetails builds the parent-row relationship summary,
// "g1=v1;v2|g2=v3;v4", listing every option of every group.
func AggregateDetails(groups []OptionGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(g.Name)
		b.WriteByte('=')
		for j, o := range g.Options {
			if j > 0 {
				b.WriteByte(';')
			}
			b.WriteString(o.Value)
		}
	}
	return b.String()
}
