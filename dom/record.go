package dom

// Op is the kind of change made to the document.
type Op string

const (
	OpInsert  Op = "insert"   // subtree appended
	OpRemove  Op = "remove"   // subtree removed
	OpText    Op = "text"     // element content replaced by text
	OpAttr    Op = "attr"     // attribute set
	OpAttrDel Op = "attr_del" // attribute removed
	OpTitle   Op = "title"    // document title changed
)

// Record describes one mutation made through the Document API.
type Record struct {
	Op       Op     `json:"op"`
	Selector string `json:"selector,omitempty"`
	Name     string `json:"name,omitempty"`  // attribute name for attr/attr_del
	Value    string `json:"value,omitempty"` // new text, attribute value or HTML fragment
	Matched  int    `json:"matched"`         // number of elements affected
}

// Structural reports whether the record changes text content or the shape
// of the tree, as opposed to an attribute.
func (r Record) Structural() bool {
	switch r.Op {
	case OpInsert, OpRemove, OpText, OpTitle:
		return true
	}
	return false
}
