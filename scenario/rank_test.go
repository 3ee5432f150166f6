package scenario

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func i64(v int64) *int64 { return &v }

func candidate(t ItemType, label string, score int) Candidate {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(t)+":"+label))
	return Candidate{ItemType: t, SourceID: &id, Label: label, Score: score}
}

func labels(items []Item, t ItemType) []string {
	var out []string
	for _, item := range items {
		if item.ItemType == t {
			out = append(out, item.Label)
		}
	}
	return out
}

func testPools() Pools {
	cheap := candidate(ItemActivity, "museum", 1)
	cheap.CostHint = i64(500)
	cheap.DurationHint = i64(120)
	pricey := candidate(ItemActivity, "diving", 5)
	pricey.CostHint = i64(9000)
	pricey.DurationHint = i64(240)
	mid := candidate(ItemActivity, "food tour", 3)
	mid.CostHint = i64(2500)
	mid.DurationHint = i64(180)
	hike := candidate(ItemActivity, "hike", 2)
	hike.DurationHint = i64(480)
	unknown := candidate(ItemActivity, "market", 4)

	lockedDest := candidate(ItemDestination, "Lisbon", 1)
	lockedDest.Committed = true

	hostel := candidate(ItemBooking, "hostel", 1)
	hostel.CostHint = i64(3000)
	hotel := candidate(ItemBooking, "hotel", 4)
	hotel.CostHint = i64(12000)
	hotel.Committed = true
	flat := candidate(ItemBooking, "flat", 2)
	flat.CostHint = i64(8000)

	return Pools{
		Destinations: []Candidate{
			candidate(ItemDestination, "Porto", 5),
			lockedDest,
			candidate(ItemDestination, "Faro", 3),
		},
		Activities: []Candidate{cheap, pricey, mid, hike, unknown},
		Bookings:   []Candidate{hostel, hotel, flat},
		Prep: []Candidate{
			candidate(ItemPrep, "passports", 1),
			candidate(ItemPrep, "insurance", 3),
			candidate(ItemPrep, "adapters", 2),
		},
	}
}

func TestGeneratePolicies(t *testing.T) {
	tests := []struct {
		name         string
		scenario     Type
		destinations []string
		activities   []string
		bookings     []string
		prep         []string
	}{
		{
			name:         "balanced ranks everything by score",
			scenario:     TypeBalanced,
			destinations: []string{"Porto", "Faro"},
			activities:   []string{"diving", "market", "food tour"},
			bookings:     []string{"hotel", "flat"},
			prep:         []string{"insurance", "adapters"},
		},
		{
			name:         "budget puts locked destinations first and cheap items first",
			scenario:     TypeBudget,
			destinations: []string{"Lisbon", "Porto"},
			activities:   []string{"museum", "food tour", "diving"},
			bookings:     []string{"hostel", "flat"},
			prep:         []string{"insurance", "adapters"},
		},
		{
			name:         "adventure takes four longest activities",
			scenario:     TypeAdventure,
			destinations: []string{"Porto", "Faro"},
			activities:   []string{"hike", "diving", "food tour", "museum"},
			bookings:     []string{"hotel", "flat"},
			prep:         []string{"insurance", "adapters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Generate(tt.scenario, testPools(), nil, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			checks := []struct {
				itemType ItemType
				want     []string
			}{
				{ItemDestination, tt.destinations},
				{ItemActivity, tt.activities},
				{ItemBooking, tt.bookings},
				{ItemPrep, tt.prep},
			}
			for _, c := range checks {
				if got := labels(items, c.itemType); !reflect.DeepEqual(got, c.want) {
					t.Fatalf("expected %s %v, got %v", c.itemType, c.want, got)
				}
			}
			for i, item := range items {
				if item.OrderIndex != i {
					t.Fatalf("expected order index %d, got %d", i, item.OrderIndex)
				}
			}
		})
	}
}

func TestGenerateLocksCommittedItems(t *testing.T) {
	items, err := Generate(TypeBudget, testPools(), nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		wantLocked := item.Label == "Lisbon"
		if item.IsLocked != wantLocked {
			t.Fatalf("expected %s locked=%v, got %v", item.Label, wantLocked, item.IsLocked)
		}
	}

	items, err = Generate(TypeBalanced, testPools(), nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		if item.Label == "hotel" && !item.IsLocked {
			t.Fatalf("expected confirmed booking to start locked")
		}
	}
}

func TestGenerateCarriesLockedItems(t *testing.T) {
	kept := candidate(ItemDestination, "Madeira", 0)
	kept.Details = "pinned by the group"
	keptID := uuid.New()
	previous := &Scenario{
		Type: TypeBudget,
		Items: []Item{
			{ID: keptID, Candidate: kept, IsLocked: true, OrderIndex: 3},
			{ID: uuid.New(), Candidate: candidate(ItemActivity, "old activity", 9), IsLocked: false, OrderIndex: 4},
		},
	}

	items, err := Generate(TypeBudget, testPools(), previous, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := items[0]
	if first.ID != keptID || first.Label != "Madeira" || first.Details != "pinned by the group" || first.Score != 0 {
		t.Fatalf("expected locked item carried unchanged, got %+v", first)
	}
	if !first.IsLocked || first.OrderIndex != 0 {
		t.Fatalf("expected carried item locked at index 0, got %+v", first)
	}
	for _, item := range items {
		if item.Label == "old activity" {
			t.Fatalf("expected unlocked previous item to be dropped")
		}
	}
	if got := labels(items, ItemDestination); !reflect.DeepEqual(got, []string{"Madeira", "Lisbon", "Porto"}) {
		t.Fatalf("expected carried destination plus two new ones, got %v", got)
	}
}

func TestGenerateDeduplicatesAgainstLockedItems(t *testing.T) {
	pools := testPools()
	porto := pools.Destinations[0]
	previous := &Scenario{Items: []Item{{Candidate: porto, IsLocked: true}}}

	items, err := Generate(TypeBalanced, pools, previous, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := labels(items, ItemDestination); !reflect.DeepEqual(got, []string{"Porto", "Faro"}) {
		t.Fatalf("expected Porto once, got %v", got)
	}
}

func TestGenerateDedupByLabelWithoutSource(t *testing.T) {
	pools := Pools{Prep: []Candidate{
		{ItemType: ItemPrep, Label: "visa", Score: 2},
		{ItemType: ItemPrep, Label: "visa", Score: 1},
		{ItemType: ItemPrep, Label: "sunscreen", Score: 0},
	}}

	items, err := Generate(TypeBalanced, pools, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := labels(items, ItemPrep); !reflect.DeepEqual(got, []string{"visa"}) {
		t.Fatalf("expected visa once, got %v", got)
	}
}

func TestGenerateRejectsCollidingLockedItems(t *testing.T) {
	dup := candidate(ItemBooking, "hotel", 1)
	previous := &Scenario{Items: []Item{
		{Candidate: dup, IsLocked: true},
		{Candidate: dup, IsLocked: true},
	}}

	if _, err := Generate(TypeBalanced, Pools{}, previous, ""); !errors.Is(err, ErrCandidateDedupCollision) {
		t.Fatalf("expected ErrCandidateDedupCollision, got %v", err)
	}
}

func TestGeneratePromptNote(t *testing.T) {
	prompt := "  " + strings.Repeat("é", 300) + "  "

	items, err := Generate(TypeAdventure, Pools{}, nil, prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected only the alignment note, got %d items", len(items))
	}
	note := items[0]
	if note.ItemType != ItemPrep || note.IsLocked || note.Details != alignmentNote {
		t.Fatalf("expected an unlocked prep alignment note, got %+v", note)
	}
	if n := len([]rune(note.Label)); n != maxPromptLength {
		t.Fatalf("expected prompt truncated to %d characters, got %d", maxPromptLength, n)
	}

	previous := &Scenario{Items: []Item{{Candidate: note.Candidate, IsLocked: true}}}
	items, err = Generate(TypeAdventure, Pools{}, previous, prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the same note not to be added twice, got %d items", len(items))
	}
}

func TestGenerateEmptyPools(t *testing.T) {
	items, err := Generate(TypeBudget, Pools{}, nil, "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %v", items)
	}
}

func TestGenerateUnknownType(t *testing.T) {
	if _, err := Generate("luxury", Pools{}, nil, ""); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	pools := testPools()
	pools.Activities = append(pools.Activities, candidate(ItemActivity, "same score a", 5), candidate(ItemActivity, "same score b", 5))

	for _, st := range Types {
		first, err := Generate(st, pools, nil, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := Generate(st, pools, &Scenario{Items: first}, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(contentOf(first), contentOf(second)) {
			t.Fatalf("%s: expected same content twice, got %v and %v", st, contentOf(first), contentOf(second))
		}
	}
}

func contentOf(items []Item) map[key]bool {
	out := make(map[key]bool, len(items))
	for _, item := range items {
		out[item.key()] = item.IsLocked
	}
	return out
}

func TestGenerateAll(t *testing.T) {
	previous := map[Type]*Scenario{
		TypeBudget: {Items: []Item{{Candidate: candidate(ItemActivity, "cooking class", 0), IsLocked: true}}},
	}

	all, err := GenerateAll(testPools(), previous, "keep it relaxed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(Types) {
		t.Fatalf("expected %d scenarios, got %d", len(Types), len(all))
	}
	if all[TypeBudget][0].Label != "cooking class" {
		t.Fatalf("expected budget scenario to keep its locked item first, got %+v", all[TypeBudget][0])
	}
	for _, st := range Types {
		items := all[st]
		last := items[len(items)-1]
		if last.Label != "keep it relaxed" {
			t.Fatalf("%s: expected prompt note last, got %+v", st, last)
		}
	}
}
