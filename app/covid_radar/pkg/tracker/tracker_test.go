package tracker

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

func observation(at time.Time) model.Observation {
	return model.Observation{
		Total: 221,
		Breakdown: []model.RegionCount{
			{Region: "Oslo", Count: 123},
			{Region: "Viken", Count: 98},
		},
		ExtraSignals: map[string]float64{"deaths": 7},
		SourceURL:    "https://www.fhi.no/rapport",
		ObservedAt:   at,
	}
}

var day1 = time.Date(2020, 3, 20, 10, 15, 0, 0, time.UTC)

func TestDecideIgnoresTimestamp(t *testing.T) {
	prev := observation(day1)
	cur := observation(day1.Add(24 * time.Hour))

	d := Decide(&prev, cur)
	if d.ShouldAppend {
		t.Fatalf("ShouldAppend = true for timestamp-only change, diff:\n%s", d.Diff)
	}
	if !d.Latest.ObservedAt.Equal(cur.ObservedAt) {
		t.Fatalf("Latest.ObservedAt = %v, want %v", d.Latest.ObservedAt, cur.ObservedAt)
	}
}

func TestDecideFirstRunAlwaysAppends(t *testing.T) {
	for _, cur := range []model.Observation{observation(day1), {}} {
		if d := Decide(nil, cur); !d.ShouldAppend {
			t.Fatalf("Decide(nil, %+v).ShouldAppend = false", cur)
		}
	}
}

func TestDecideDetectsChanges(t *testing.T) {
	cases := map[string]func(o *model.Observation){
		"total":           func(o *model.Observation) { o.Total = 222 },
		"count":           func(o *model.Observation) { o.Breakdown[1].Count = 99 },
		"region order":    func(o *model.Observation) { o.Breakdown[0], o.Breakdown[1] = o.Breakdown[1], o.Breakdown[0] },
		"region label":    func(o *model.Observation) { o.Breakdown[0].Region = "Oslo kommune" },
		"extra signal":    func(o *model.Observation) { o.ExtraSignals["deaths"] = 8 },
		"new signal":      func(o *model.Observation) { o.ExtraSignals["icu"] = 2 },
		"dropped signals": func(o *model.Observation) { o.ExtraSignals = nil },
		"source url":      func(o *model.Observation) { o.SourceURL = "https://www.fhi.no/annen" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			prev := observation(day1)
			cur := observation(day1.Add(time.Hour))
			mutate(&cur)
			d := Decide(&prev, cur)
			if !d.ShouldAppend {
				t.Fatalf("ShouldAppend = false")
			}
			if d.Diff == "" {
				t.Fatalf("Diff is empty")
			}
		})
	}
}

func TestDecideTreatsNilAndEmptyAsEqual(t *testing.T) {
	prev := observation(day1)
	prev.ExtraSignals = nil
	cur := observation(day1)
	cur.ExtraSignals = map[string]float64{}

	if d := Decide(&prev, cur); d.ShouldAppend {
		t.Fatalf("nil vs empty ExtraSignals treated as change:\n%s", d.Diff)
	}
}

func TestDecideIsIdempotentAndPure(t *testing.T) {
	prev := observation(day1)
	cur := observation(day1.Add(time.Hour))
	cur.Total = 300
	prevCopy, curCopy := prev.Clone(), cur.Clone()

	first := Decide(&prev, cur)
	second := Decide(&prev, cur)
	if first.ShouldAppend != second.ShouldAppend || first.Diff != second.Diff {
		t.Fatalf("Decide not idempotent: %+v vs %+v", first, second)
	}
	if diff := cmp.Diff(prevCopy, prev); diff != "" {
		t.Fatalf("previous mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(curCopy, cur); diff != "" {
		t.Fatalf("current mutated (-want +got):\n%s", diff)
	}

	first.Latest.Breakdown[0].Count = 0
	if cur.Breakdown[0].Count != 123 {
		t.Fatalf("Decision.Latest shares state with current")
	}
}

func TestStripTimestamp(t *testing.T) {
	o := observation(day1)
	s := StripTimestamp(o)
	if !s.ObservedAt.IsZero() {
		t.Fatalf("ObservedAt not stripped: %v", s.ObservedAt)
	}
	if !o.ObservedAt.Equal(day1) {
		t.Fatalf("StripTimestamp mutated input")
	}
	if !Equal(o, observation(day1.Add(48*time.Hour))) {
		t.Fatalf("Equal() = false for timestamp-only difference")
	}
}
