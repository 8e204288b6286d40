package domain

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDescriptionDiff renders a line-based unified diff between two
// description values, so multi-paragraph descriptions show minimal,
// readable deltas in the events channel.
func UnifiedDescriptionDiff(from, to string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: "Old description",
		ToFile:   "New description",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("%s -> %s", from, to)
	}
	return strings.TrimRight(diff, "\n")
}

func placeholderOrValue(v string) string {
	if v == "" {
		return "`(empty)`"
	}
	return v
}

// Summary renders one human-readable section for the aggregate edit
// notification posted to the events channel.
func (c FieldChange) Summary() string {
	switch c.Field {
	case FieldTitle:
		return fmt.Sprintf("Title changed from %s to %s", c.From, c.To)
	case FieldDescription:
		return fmt.Sprintf("Description changed:\n```diff\n%s\n```", UnifiedDescriptionDiff(c.From, c.To))
	case FieldPrice:
		return fmt.Sprintf("Price changed from %s to %s", placeholderOrValue(c.From), placeholderOrValue(c.To))
	case FieldStatus:
		return fmt.Sprintf("Status changed from %s to %s", c.From, c.To)
	}
	return fmt.Sprintf("%s changed", c.Field)
}

// Summaries renders all change sections in edit order.
func (c ChangeSet) Summaries() []string {
	out := make([]string, 0, len(c))
	for _, ch := range c {
		out = append(out, ch.Summary())
	}
	return out
}
