// Package mutation defines the DOM change batches a mutation source
// delivers to a reconciler.
package mutation

// Op is the type of DOM mutation observed.
type Op string

const (
	OpInsert     Op = "insert"      // childNodeInserted or MutationObserver addedNodes
	OpRemove     Op = "remove"      // childNodeRemoved or MutationObserver removedNodes
	OpAttr       Op = "attr"        // attributeModified
	OpAttrDel    Op = "attr_del"    // attributeRemoved
	OpDocReset   Op = "doc_reset"   // documentUpdated, entire DOM replaced
	OpChildCount Op = "child_count" // childNodeCountUpdated, children of an unexpanded node changed
)

// ChildList reports whether the op adds or removes nodes.
func (o Op) ChildList() bool {
	switch o {
	case OpInsert, OpRemove, OpDocReset, OpChildCount:
		return true
	}
	return false
}

// Record is a single DOM mutation.
type Record struct {
	Op       Op     `json:"op"`
	NodeID   int    `json:"node_id,omitempty"`
	ParentID int    `json:"parent_id,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Name     string `json:"name,omitempty"`  // attribute name for attr/attr_del
	Value    string `json:"value,omitempty"` // new attribute value
}

// Batch is all mutations collected during one debounce window.
type Batch struct {
	ID        string   `json:"id"` // UUIDv7
	PageID    string   `json:"page_id"`
	Seq       uint64   `json:"seq"` // monotonically increasing per page
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds at flush
}

// HasChildList reports whether any record in the batch adds or removes
// nodes. Attribute-only batches do not warrant a reconciliation pass.
func (b Batch) HasChildList() bool {
	for _, r := range b.Records {
		if r.Op.ChildList() {
			return true
		}
	}
	return false
}

// Compress folds consecutive attribute changes on the same (node, name)
// into the last one. Child-list records are never folded.
func Compress(records []Record) []Record {
	if len(records) <= 1 {
		return records
	}
	out := make([]Record, 0, len(records))
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if rec.Op == OpAttr {
			j := i + 1
			for j < len(records) &&
				records[j].Op == OpAttr &&
				records[j].NodeID == rec.NodeID &&
				records[j].Name == rec.Name {
				rec = records[j]
				j++
			}
			i = j - 1
		}
		out = append(out, rec)
	}
	return out
}
