package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

const (
	lakh  = 100_000
	crore = 100 * lakh
)

// FormatINR renders an amount in rupees using lakh and crore units.
func FormatINR(amount int) string {
	switch {
	case amount >= crore:
		return "₹" + trimUnit(float64(amount)/crore) + " Crore"
	case amount >= lakh:
		return "₹" + trimUnit(float64(amount)/lakh) + " Lakh"
	}
	return "₹" + groupDigits(amount)
}

func trimUnit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupDigits uses Indian grouping: 1,23,456.
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// Relations are the party tags a member can have.
var Relations = []domain.Option{
	{ID: "self", Label: "Myself"},
	{ID: "spouse", Label: "Spouse"},
	{ID: "son", Label: "Son"},
	{ID: "daughter", Label: "Daughter"},
	{ID: "father", Label: "Father"},
	{ID: "mother", Label: "Mother"},
}

// RelationLabel returns the display label of a relation tag.
func RelationLabel(relation string) string {
	for _, o := range Relations {
		if o.ID == relation {
			return o.Label
		}
	}
	return relation
}

// JoinNatural joins items as "a, b and c".
func JoinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// Hello greets the saved name, if any.
func Hello(s *domain.State, greeting string) string {
	if name := domain.AsString(s.Get("name")); name != "" {
		return fmt.Sprintf("%s, %s", greeting, name)
	}
	return greeting
}

// Float returns a pointer to v, for InputConstraints bounds.
func Float(v float64) *float64 {
	return &v
}
