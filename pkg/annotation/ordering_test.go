package annotation

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func starts(list []Annotation) []int {
	out := make([]int, len(list))
	for i := range list {
		out[i] = list[i].Start
	}
	return out
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name string
		list []Annotation
		ann  Annotation
		want []int // expected ids in order
	}{
		{
			name: "into empty list",
			list: nil,
			ann:  Annotation{ID: 1, Start: 5, End: 8},
			want: []int{1},
		},
		{
			name: "middle insertion",
			list: []Annotation{
				{ID: 1, Start: 0, End: 4},
				{ID: 2, Start: 10, End: 13},
			},
			ann:  Annotation{ID: 3, Start: 5, End: 8, Type: "data"},
			want: []int{1, 3, 2},
		},
		{
			name: "tie goes after existing equal start",
			list: []Annotation{
				{ID: 1, Start: 0, End: 4},
				{ID: 2, Start: 5, End: 9},
			},
			ann:  Annotation{ID: 3, Start: 5, End: 7},
			want: []int{1, 2, 3},
		},
		{
			name: "before all",
			list: []Annotation{
				{ID: 1, Start: 3, End: 4},
			},
			ann:  Annotation{ID: 2, Start: 0, End: 2},
			want: []int{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Insert(tt.list, tt.ann)
			ids := make([]int, len(got))
			for i := range got {
				ids[i] = got[i].ID
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Insert() order = %v, want %v", ids, tt.want)
			}
			if !sort.IntsAreSorted(starts(got)) {
				t.Errorf("Insert() result not sorted by start: %v", starts(got))
			}
		})
	}
}

func TestInsertMatchesBatchSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	batch := make([]Annotation, 0, 200)
	var incremental []Annotation
	for i := 0; i < 200; i++ {
		start := rng.Intn(50)
		ann := Annotation{ID: i + 1, Start: start, End: start + 1}
		batch = append(batch, ann)
		incremental = Insert(incremental, ann)
	}
	SortByStart(batch)

	if !reflect.DeepEqual(incremental, batch) {
		t.Errorf("incremental inserts diverge from stable batch sort")
	}
}

func TestDelete(t *testing.T) {
	list := []Annotation{
		{ID: 1, Start: 0, End: 4},
		{ID: 2, Start: 5, End: 9},
		{ID: 3, Start: 10, End: 12},
	}

	got, found := Delete(list, 2)
	if !found {
		t.Fatalf("Delete() found = false, want true")
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Delete() = %v", got)
	}

	got, found = Delete(list, 99)
	if found {
		t.Errorf("Delete() of missing id reported found")
	}
	if !reflect.DeepEqual(got, list) {
		t.Errorf("Delete() of missing id modified the list")
	}
}

func TestTypeFilterCache(t *testing.T) {
	list := []Annotation{
		{ID: 1, Start: 0, End: 1, Type: "Persona"},
		{ID: 2, Start: 2, End: 3, Type: "persona"},
		{ID: 3, Start: 4, End: 5, Type: "luogo"},
	}

	var cache TypeFilterCache
	got := cache.Types(list)
	want := []string{"Persona", "luogo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}

	// Same slice identity returns the exact cached slice.
	again := cache.Types(list)
	if &again[0] != &got[0] {
		t.Errorf("Types() did not return memoized result for same slice identity")
	}

	// A structurally equal copy is a different identity and is rescanned.
	copied := append([]Annotation(nil), list...)
	fresh := cache.Types(copied)
	if !reflect.DeepEqual(fresh, want) {
		t.Errorf("Types(copy) = %v, want %v", fresh, want)
	}
}

func TestFilterByTypes(t *testing.T) {
	list := []Annotation{
		{ID: 1, Type: "persona"},
		{ID: 2, Type: "LUOGO"},
		{ID: 3, Type: "data"},
	}

	got := FilterByTypes(list, []string{"Persona", "luogo"})
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("FilterByTypes() = %v", got)
	}

	if all := FilterByTypes(list, nil); len(all) != 3 {
		t.Errorf("FilterByTypes(nil) should pass everything, got %v", all)
	}

	if none := FilterByTypes(list, []string{}); len(none) != 0 {
		t.Errorf("FilterByTypes(empty) should filter everything, got %v", none)
	}
}
