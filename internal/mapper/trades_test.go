package mapper

import (
	"strconv"
	"testing"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

func TestTradeRingNewestFirst(t *testing.T) {
	r := newTradeRing(3)
	for i := 1; i <= 3; i++ {
		r.push(domain.Trade{ID: strconv.Itoa(i)})
	}

	got := r.items()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"3", "2", "1"} {
		if got[i].ID != want {
			t.Errorf("items()[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestTradeRingDropsOldest(t *testing.T) {
	r := newTradeRing(2)
	for i := 1; i <= 5; i++ {
		r.push(domain.Trade{ID: strconv.Itoa(i)})
	}

	got := r.items()
	if len(got) != 2 || got[0].ID != "5" || got[1].ID != "4" {
		t.Errorf("items() = %v", got)
	}
}

func TestTradeRingItemsCopy(t *testing.T) {
	r := newTradeRing(2)
	r.push(domain.Trade{ID: "1"})

	items := r.items()
	items[0].ID = "mutated"
	if r.items()[0].ID != "1" {
		t.Error("items() must return a copy")
	}
}
