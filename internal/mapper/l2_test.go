package mapper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tardis-dev/serum-vial/internal/domain"
)

func lvl(price, size string) level {
	return level{
		price: decimal.RequireFromString(price),
		size:  decimal.RequireFromString(size),
	}
}

func ord(price, size string) Order {
	return Order{
		Price: decimal.RequireFromString(price),
		Size:  decimal.RequireFromString(size),
		Side:  domain.SideSell,
	}
}

func sameLevels(got, want []level) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !got[i].price.Equal(want[i].price) || !got[i].size.Equal(want[i].size) {
			return false
		}
	}
	return true
}

func TestAggregateLevels(t *testing.T) {
	orders := []Order{
		ord("7469.0", "0.0010"),
		ord("7469.0", "0.0020"),
		ord("7469.5", "0.0005"),
		ord("7470.0", "0.0010"),
		ord("7470.0", "0.0010"),
	}
	got := aggregateLevels(orders)
	want := []level{lvl("7469.0", "0.0030"), lvl("7469.5", "0.0005"), lvl("7470.0", "0.0020")}
	if !sameLevels(got, want) {
		t.Errorf("aggregateLevels = %v, want %v", got, want)
	}

	if got := aggregateLevels(nil); len(got) != 0 {
		t.Errorf("aggregateLevels(nil) = %v, want empty", got)
	}
}

func TestDiffLevelsAscending(t *testing.T) {
	prev := []level{lvl("7469.0", "0.0030"), lvl("7470.0", "0.0020"), lvl("7471.0", "0.0010")}
	next := []level{lvl("7468.5", "0.0005"), lvl("7469.0", "0.0030"), lvl("7470.0", "0.0040")}

	got := diffLevels(prev, next, false)
	// Added level, changed size, removed level as size zero.
	want := []level{lvl("7468.5", "0.0005"), lvl("7470.0", "0.0040"), lvl("7471.0", "0")}
	if !sameLevels(got, want) {
		t.Errorf("diffLevels = %v, want %v", got, want)
	}
}

func TestDiffLevelsDescending(t *testing.T) {
	prev := []level{lvl("7468.0", "0.0020"), lvl("7467.0", "0.0010")}
	next := []level{lvl("7468.5", "0.0030"), lvl("7468.0", "0.0020")}

	got := diffLevels(prev, next, true)
	want := []level{lvl("7468.5", "0.0030"), lvl("7467.0", "0")}
	if !sameLevels(got, want) {
		t.Errorf("diffLevels = %v, want %v", got, want)
	}
}

func TestDiffLevelsNoChanges(t *testing.T) {
	levels := []level{lvl("7469.0", "0.0030")}
	if got := diffLevels(levels, levels, false); len(got) != 0 {
		t.Errorf("diffLevels of identical sides = %v, want empty", got)
	}
}

func TestDiffLevelsEmptyPrev(t *testing.T) {
	next := []level{lvl("7469.0", "0.0030"), lvl("7470.0", "0.0010")}
	if got := diffLevels(nil, next, false); !sameLevels(got, next) {
		t.Errorf("diffLevels(nil, next) = %v, want %v", got, next)
	}
}

func TestFirstLevelCopies(t *testing.T) {
	levels := []level{lvl("7469.0", "0.0030")}
	first := firstLevel(levels)
	levels[0].size = decimal.Zero
	if first.size.IsZero() {
		t.Error("firstLevel must copy, not alias the slice element")
	}

	if firstLevel(nil) != nil {
		t.Error("firstLevel(nil) should be nil")
	}
}

func TestLevelsEquivalent(t *testing.T) {
	a := lvl("7469.0", "0.0030")
	b := lvl("7469.0", "0.0030")
	c := lvl("7469.0", "0.0040")

	if !levelsEquivalent(&a, &b) {
		t.Error("equal levels reported different")
	}
	if levelsEquivalent(&a, &c) {
		t.Error("different sizes reported equal")
	}
	if levelsEquivalent(&a, nil) {
		t.Error("nil vs level reported equal")
	}
	if !levelsEquivalent(nil, nil) {
		t.Error("nil vs nil reported different")
	}
}
