package retrieval

import "testing"

func TestBuildFilterEmpty(t *testing.T) {
	t.Parallel()

	if f := BuildFilter(SearchOptions{}); f != nil {
		t.Errorf("BuildFilter(empty) = %+v, want nil", f)
	}

	// Price bounds alone must not produce a filter — price is post-filtered.
	lo, hi := 10.0, 100.0
	if f := BuildFilter(SearchOptions{MinPrice: &lo, MaxPrice: &hi}); f != nil {
		t.Errorf("BuildFilter(price only) = %+v, want nil", f)
	}
}

func TestBuildFilterSingleCondition(t *testing.T) {
	t.Parallel()

	f := BuildFilter(SearchOptions{Category: "ruj"})
	if f == nil {
		t.Fatal("BuildFilter(category) = nil, want filter")
	}
	if len(f.Must) != 1 {
		t.Fatalf("len(Must) = %d, want 1", len(f.Must))
	}
	if f.Must[0].Field != "category" || f.Must[0].Equals != "ruj" {
		t.Errorf("Must[0] = %+v, want category == ruj", f.Must[0])
	}
}

func TestBuildFilterConjunction(t *testing.T) {
	t.Parallel()

	f := BuildFilter(SearchOptions{Category: "parfüm", Origin: "Fransa", Color: "şeffaf"})
	if f == nil {
		t.Fatal("BuildFilter = nil, want filter")
	}
	if len(f.Must) != 3 {
		t.Fatalf("len(Must) = %d, want 3", len(f.Must))
	}

	got := map[string]string{}
	for _, c := range f.Must {
		got[c.Field] = c.Equals
	}
	want := map[string]string{"category": "parfüm", "origin": "Fransa", "color": "şeffaf"}
	for field, val := range want {
		if got[field] != val {
			t.Errorf("condition %s = %q, want %q", field, got[field], val)
		}
	}
}

func TestToQdrantFilterNilStaysNil(t *testing.T) {
	t.Parallel()

	if f := toQdrantFilter(nil); f != nil {
		t.Errorf("toQdrantFilter(nil) = %+v, want nil", f)
	}
	if f := toQdrantFilter(&Filter{}); f != nil {
		t.Errorf("toQdrantFilter(empty) = %+v, want nil", f)
	}
}
