package mutation

import "testing"

func TestHasChildList(t *testing.T) {
	cases := []struct {
		name string
		ops  []Op
		want bool
	}{
		{"empty", nil, false},
		{"attr only", []Op{OpAttr, OpAttrDel}, false},
		{"insert", []Op{OpAttr, OpInsert}, true},
		{"remove", []Op{OpRemove}, true},
		{"reset", []Op{OpDocReset}, true},
		{"child count", []Op{OpAttr, OpChildCount}, true},
	}
	for _, tc := range cases {
		var b Batch
		for _, op := range tc.ops {
			b.Records = append(b.Records, Record{Op: op})
		}
		if got := b.HasChildList(); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCompress_ConsecutiveAttr(t *testing.T) {
	records := []Record{
		{Op: OpAttr, NodeID: 4, Name: "class", Value: "a"},
		{Op: OpAttr, NodeID: 4, Name: "class", Value: "b"},
		{Op: OpAttr, NodeID: 4, Name: "class", Value: "c"},
	}
	got := Compress(records)
	if len(got) != 1 {
		t.Fatalf("Compress: got %d records, want 1", len(got))
	}
	if got[0].Value != "c" {
		t.Errorf("Value: got %q, want %q", got[0].Value, "c")
	}
}

func TestCompress_MixedOps(t *testing.T) {
	records := []Record{
		{Op: OpAttr, NodeID: 1, Name: "style", Value: "a"},
		{Op: OpAttr, NodeID: 1, Name: "style", Value: "b"},
		{Op: OpInsert, NodeID: 2},
		{Op: OpInsert, NodeID: 3},
		{Op: OpAttr, NodeID: 1, Name: "style", Value: "c"},
		{Op: OpRemove, NodeID: 2},
	}
	got := Compress(records)
	if len(got) != 5 {
		t.Fatalf("Compress: got %d records, want 5", len(got))
	}
	if got[0].Value != "b" {
		t.Errorf("Record[0].Value: got %q, want %q", got[0].Value, "b")
	}
	if got[4].Op != OpRemove {
		t.Errorf("Record[4].Op: got %q, want %q", got[4].Op, OpRemove)
	}
}

func TestCompress_Empty(t *testing.T) {
	if got := Compress(nil); got != nil {
		t.Errorf("Compress(nil): got %v, want nil", got)
	}
}
