package internaldefs

import (
	"strings"
	"testing"
)

func TestCumulative(t *testing.T) {
	got := Cumulative([]uint64{1, 2, 0, 3})
	want := [8]uint64{1, 3, 3, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("Cumulative = %v, want %v", got, want)
	}
	if Cumulative(nil) != [8]uint64{} {
		t.Fatal("nil buckets must be all zero")
	}
}

func TestNamesAreUniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]bool)
	all := append(append([]Def{}, Counters...), Histograms...)
	all = append(all, AuditDropped)
	for _, def := range all {
		if !strings.HasPrefix(def.Name, "checkin_") {
			t.Fatalf("metric %q lacks the checkin_ prefix", def.Name)
		}
		if seen[def.Name] {
			t.Fatalf("duplicate metric name %q", def.Name)
		}
		seen[def.Name] = true
	}
	for _, def := range Counters {
		if !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("counter %q must end in _total", def.Name)
		}
	}
}
