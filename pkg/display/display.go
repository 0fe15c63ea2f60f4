// Package display maps persisted snapshots to the resume cards shown on a
// product's landing page. Mapping is pure and plays no part in flow control.
package display

import (
	"fmt"
	"slices"
	"sort"

	"github.com/aretw0/funnel/pkg/domain"
)

// Urgency ranks how strongly a card should nudge the user back.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Card is the user-facing status of an interrupted journey.
type Card struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	CTALabel string  `json:"cta_label"`
	Route    string  `json:"route"`
	Urgency  Urgency `json:"urgency"`
	Badge    string  `json:"badge,omitempty"`
}

// Entry renders the card for one checkpoint.
type Entry func(snap *domain.Snapshot) Card

// Table holds the entries of one product, keyed by checkpoint id.
type Table struct {
	Product string
	Entries map[string]Entry
}

// Covers reports the checkpoints without an entry.
func (t Table) Covers(checkpoints []string) error {
	var missing []string
	for _, c := range checkpoints {
		if _, ok := t.Entries[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s display table misses checkpoints %v", t.Product, missing)
	}
	return nil
}

// Mapper dispatches to the table of a product.
type Mapper struct {
	tables map[string]Table
}

// NewMapper creates a mapper over tables.
func NewMapper(tables ...Table) *Mapper {
	m := &Mapper{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		m.tables[t.Product] = t
	}
	return m
}

// Map returns the card for snap. ok is false when there is nothing to show:
// no snapshot, an unknown product or a step the table does not know.
func (m *Mapper) Map(product string, snap *domain.Snapshot) (Card, bool) {
	if snap == nil {
		return Card{}, false
	}
	t, ok := m.tables[product]
	if !ok {
		return Card{}, false
	}
	entry, ok := t.Entries[snap.CurrentStepID]
	if !ok {
		return Card{}, false
	}
	return entry(snap), true
}

// Products returns the products with a table, sorted.
func (m *Mapper) Products() []string {
	out := make([]string, 0, len(m.tables))
	for p := range m.tables {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Static returns an entry that ignores the snapshot.
func Static(c Card) Entry {
	return func(*domain.Snapshot) Card { return c }
}

// Greeting prefixes title with the saved name, when there is one.
func Greeting(snap *domain.Snapshot, title string) string {
	if name := domain.AsString(snap.Fields["name"]); name != "" {
		return name + ", " + lowerFirst(title)
	}
	return title
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}

// Badges lists every badge used by the tables, for host styling.
func (m *Mapper) Badges() []string {
	var out []string
	for _, t := range m.tables {
		for _, e := range t.Entries {
			b := e(&domain.Snapshot{Fields: map[string]any{}}).Badge
			if b != "" && !slices.Contains(out, b) {
				out = append(out, b)
			}
		}
	}
	sort.Strings(out)
	return out
}
