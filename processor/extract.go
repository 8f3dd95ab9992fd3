package processor

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultIgnoredTags contains elements whose content is not human text.
var DefaultIgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"math":     true,
}

// DefaultAttributes is the attribute allow-list scanned on every element.
var DefaultAttributes = []string{"title", "alt", "placeholder", "aria-label"}

const (
	// DefaultMinLength is the shortest normalized text, in runes, worth translating.
	DefaultMinLength = 2
	// DefaultMaxLength is the longest normalized text, in runes, sent to a provider.
	DefaultMaxLength = 5000
)

// Sources resolves the pre-translation value of a node or attribute that
// may already carry a translation.
type Sources interface {
	TextSource(n *html.Node) string
	AttrSource(n *html.Node, name, current string) string
}

// Extractor walks an HTML tree and collects translatable segments.
type Extractor struct {
	ignoredTags map[string]bool
	attributes  []string
	minLength   int
	maxLength   int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithIgnoredTags replaces the set of skipped container elements.
func WithIgnoredTags(tags ...string) ExtractorOption {
	return func(x *Extractor) {
		ignored := make(map[string]bool, len(tags))
		for _, tag := range tags {
			ignored[strings.ToLower(tag)] = true
		}
		x.ignoredTags = ignored
	}
}

// WithAttributes replaces the attribute allow-list.
func WithAttributes(names ...string) ExtractorOption {
	return func(x *Extractor) {
		x.attributes = append([]string(nil), names...)
	}
}

// WithLengthBounds sets the accepted normalized text length in runes.
// Non-positive values keep the defaults.
func WithLengthBounds(min, max int) ExtractorOption {
	return func(x *Extractor) {
		if min > 0 {
			x.minLength = min
		}
		if max > 0 {
			x.maxLength = max
		}
	}
}

// NewExtractor creates an Extractor with the default filters.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		ignoredTags: DefaultIgnoredTags,
		attributes:  DefaultAttributes,
		minLength:   DefaultMinLength,
		maxLength:   DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// TracksAttribute reports whether name is on the attribute allow-list.
func (x *Extractor) TracksAttribute(name string) bool {
	for _, a := range x.attributes {
		if a == name {
			return true
		}
	}
	return false
}

// Extract walks the tree under root and returns the deduplicated segments
// together with every location that references them. It does not modify the
// tree. When src is non-nil it supplies the pre-translation value of nodes
// that were already patched.
func (x *Extractor) Extract(root *html.Node, src Sources) *Pass {
	pass := &Pass{}
	ids := make(map[string]string)

	segmentID := func(text string) string {
		if id, ok := ids[text]; ok {
			return id
		}
		id := "s" + strconv.Itoa(len(pass.Segments))
		ids[text] = id
		pass.Segments = append(pass.Segments, Segment{ID: id, Text: text})
		return id
	}

	addText := func(n *html.Node, kind EntryKind) {
		raw := n.Data
		if src != nil {
			raw = src.TextSource(n)
		}
		text := Normalize(raw)
		if !x.accepts(text) {
			return
		}
		leading, trailing := splitWhitespace(raw)
		pass.Nodes = append(pass.Nodes, NodeEntry{
			Node:      n,
			Kind:      kind,
			Raw:       raw,
			Text:      text,
			Leading:   leading,
			Trailing:  trailing,
			SegmentID: segmentID(text),
		})
	}

	if title := documentTitle(root); title != nil {
		for c := title.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				addText(c, KindTitle)
				break
			}
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if x.ignoredTags[strings.ToLower(n.Data)] || optedOut(n) {
				return
			}
			for _, name := range x.attributes {
				current, ok := attrValue(n, name)
				if !ok {
					continue
				}
				raw := current
				if src != nil {
					raw = src.AttrSource(n, name, current)
				}
				text := Normalize(raw)
				if !x.accepts(text) {
					continue
				}
				pass.Attributes = append(pass.Attributes, AttributeEntry{
					Element:   n,
					Name:      name,
					Raw:       raw,
					Text:      text,
					SegmentID: segmentID(text),
				})
			}
		case html.TextNode:
			addText(n, KindText)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findElement(root, "body")
	if body == nil {
		body = root
	}
	walk(body)

	return pass
}

func (x *Extractor) accepts(text string) bool {
	if text == "" {
		return false
	}
	n := utf8.RuneCountInString(text)
	return n >= x.minLength && n <= x.maxLength
}

// optedOut reports whether an element carries an explicit do-not-translate marker.
func optedOut(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "data-no-translate":
			return true
		case "translate":
			if strings.EqualFold(strings.TrimSpace(a.Val), "no") {
				return true
			}
		case "class":
			for _, class := range strings.Fields(a.Val) {
				if class == "notranslate" {
					return true
				}
			}
		}
	}
	return false
}

// documentTitle returns the <title> element of <head>. Titles inside
// foreign content such as svg are not the document title.
func documentTitle(root *html.Node) *html.Node {
	head := findElement(root, "head")
	if head == nil {
		return nil
	}
	return findElement(head, "title")
}

// findElement returns the first HTML-namespace element named tag.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Namespace == "" && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
