// Package processor extracts translatable segments from an HTML tree and
// writes translations back onto it.
package processor

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// EntryKind identifies where a text entry lives.
type EntryKind string

const (
	// KindText is a text node inside the document body.
	KindText EntryKind = "text"
	// KindTitle is the text of the document's <title> element.
	KindTitle EntryKind = "title"
)

// Segment is a unit of deduplicated source text submitted for translation.
// IDs are only meaningful within the pass that produced them.
type Segment struct {
	ID   string `json:"id"`
	Text string `json:"text"` // whitespace-collapsed, trimmed
}

// NodeEntry binds one text node to a segment.
type NodeEntry struct {
	Node      *html.Node
	Kind      EntryKind
	Raw       string // pre-translation node data at extraction time
	Text      string // normalized Raw
	Leading   string
	Trailing  string
	SegmentID string
}

// AttributeEntry binds one (element, attribute) pair to a segment.
type AttributeEntry struct {
	Element   *html.Node
	Name      string
	Raw       string
	Text      string
	SegmentID string
}

// Pass is the result of one extraction.
type Pass struct {
	Segments   []Segment
	Nodes      []NodeEntry
	Attributes []AttributeEntry
}

// Texts returns the normalized text of every segment in first-seen order.
func (p *Pass) Texts() []string {
	texts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		texts[i] = s.Text
	}
	return texts
}

// Entries returns the number of text and attribute locations in the pass.
func (p *Pass) Entries() int {
	return len(p.Nodes) + len(p.Attributes)
}

// Normalize collapses runs of whitespace into one space and trims the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitWhitespace returns the leading and trailing whitespace of s.
func splitWhitespace(s string) (leading, trailing string) {
	trimmedLeft := strings.TrimLeftFunc(s, unicode.IsSpace)
	leading = s[:len(s)-len(trimmedLeft)]
	if trimmedLeft == "" {
		return leading, ""
	}
	trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	trailing = trimmedLeft[len(trimmed):]
	return leading, trailing
}

func attrValue(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttrValue(n *html.Node, name, value string) bool {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return true
		}
	}
	return false
}
