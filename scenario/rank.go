package scenario

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

const (
	maxPromptLength = 220
	alignmentNote   = "Alignment note"
)

type ordering func(a, b Candidate) int

type pick struct {
	count int
	order ordering
}

type policy struct {
	destinations pick
	activities   pick
	bookings     pick
	prep         pick
}

var policies = map[Type]policy{
	TypeBalanced: {
		destinations: pick{count: 2, order: byScore},
		activities:   pick{count: 3, order: byScore},
		bookings:     pick{count: 2, order: byScore},
		prep:         pick{count: 2, order: byScore},
	},
	TypeBudget: {
		destinations: pick{count: 2, order: committedFirst},
		activities:   pick{count: 3, order: cheapestFirst},
		bookings:     pick{count: 2, order: cheapestFirst},
		prep:         pick{count: 2, order: byScore},
	},
	TypeAdventure: {
		destinations: pick{count: 2, order: byScore},
		activities:   pick{count: 4, order: longestFirst},
		bookings:     pick{count: 2, order: byScore},
		prep:         pick{count: 2, order: byScore},
	},
}

func byScore(a, b Candidate) int {
	return cmp.Compare(b.Score, a.Score)
}

func committedFirst(a, b Candidate) int {
	if a.Committed != b.Committed {
		if a.Committed {
			return -1
		}
		return 1
	}
	return byScore(a, b)
}

// Unknown costs sort after every known cost.
func cheapestFirst(a, b Candidate) int {
	if c := compareHints(a.CostHint, b.CostHint, false); c != 0 {
		return c
	}
	return byScore(a, b)
}

// Unknown durations sort after every known duration.
func longestFirst(a, b Candidate) int {
	if c := compareHints(a.DurationHint, b.DurationHint, true); c != 0 {
		return c
	}
	return byScore(a, b)
}

func compareHints(a, b *int64, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case desc:
		return cmp.Compare(*b, *a)
	}
	return cmp.Compare(*a, *b)
}

// Generate builds the item list of one scenario type. Every item the
// previous scenario had locked is carried over first, unchanged and locked;
// then each pool is sorted per the scenario's policy and its top entries are
// appended unless already present. Taking the top entries rather than the
// first new ones keeps a second run over unchanged data identical. A
// non-empty prompt adds one prep item carrying the prompt text. Order
// indexes are dense from 0.
func Generate(t Type, pools Pools, previous *Scenario, prompt string) ([]Item, error) {
	p, ok := policies[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	items := make([]Item, 0)
	seen := make(map[key]struct{})

	if previous != nil {
		for _, item := range previous.Items {
			if !item.IsLocked {
				continue
			}
			k := item.key()
			if _, dup := seen[k]; dup {
				return nil, fmt.Errorf("%w: %s %q", ErrCandidateDedupCollision, k.itemType, k.ref)
			}
			seen[k] = struct{}{}

			item.IsLocked = true
			items = append(items, item)
		}
	}

	take := func(pool []Candidate, rule pick) {
		sorted := slices.Clone(pool)
		slices.SortStableFunc(sorted, rule.order)

		if len(sorted) > rule.count {
			sorted = sorted[:rule.count]
		}
		for _, c := range sorted {
			k := c.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			items = append(items, Item{
				Candidate: c,
				IsLocked:  c.Committed && (c.ItemType == ItemDestination || c.ItemType == ItemBooking),
			})
		}
	}

	take(pools.Destinations, p.destinations)
	take(pools.Activities, p.activities)
	take(pools.Bookings, p.bookings)
	take(pools.Prep, p.prep)

	if note, ok := promptItem(prompt); ok {
		if _, dup := seen[note.key()]; !dup {
			items = append(items, Item{Candidate: note})
		}
	}

	for i := range items {
		items[i].OrderIndex = i
	}

	return items, nil
}

// GenerateAll runs Generate for every scenario type.
func GenerateAll(pools Pools, previous map[Type]*Scenario, prompt string) (map[Type][]Item, error) {
	result := make(map[Type][]Item, len(Types))
	for _, t := range Types {
		items, err := Generate(t, pools, previous[t], prompt)
		if err != nil {
			return nil, fmt.Errorf("%s scenario: %w", t, err)
		}
		result[t] = items
	}
	return result, nil
}

func promptItem(prompt string) (Candidate, bool) {
	text := strings.TrimSpace(prompt)
	if text == "" {
		return Candidate{}, false
	}
	if runes := []rune(text); len(runes) > maxPromptLength {
		text = string(runes[:maxPromptLength])
	}
	return Candidate{
		ItemType: ItemPrep,
		Label:    text,
		Details:  alignmentNote,
	}, true
}
