package processor

import "golang.org/x/net/html"

// snapshot remembers the pre-translation value of a location and the value
// the patcher last wrote there.
type snapshot struct {
	original string
	written  string
}

type attrKey struct {
	node *html.Node
	name string
}

// Patcher writes translations onto the nodes captured by a Pass and keeps
// enough state to restore the tree exactly.
//
// A Patcher is not safe for concurrent use; callers serialize access with
// the document lock.
type Patcher struct {
	texts map[*html.Node]*snapshot
	attrs map[attrKey]*snapshot
}

// NewPatcher creates an empty Patcher.
func NewPatcher() *Patcher {
	return &Patcher{
		texts: make(map[*html.Node]*snapshot),
		attrs: make(map[attrKey]*snapshot),
	}
}

// TextSource returns the pre-translation data of n. A node whose data no
// longer matches what the patcher wrote was edited by someone else, and its
// current data is the new source.
func (p *Patcher) TextSource(n *html.Node) string {
	if s, ok := p.texts[n]; ok && n.Data == s.written {
		return s.original
	}
	return n.Data
}

// AttrSource is the attribute counterpart of TextSource.
func (p *Patcher) AttrSource(n *html.Node, name, current string) string {
	if s, ok := p.attrs[attrKey{n, name}]; ok && current == s.written {
		return s.original
	}
	return current
}

// Apply writes translations for every entry in pass. lookup maps normalized
// source text to its translation. Entries without a translation are put back
// to their source value so that no text from a previously applied language
// survives. Entries whose location changed after extraction are skipped.
// Apply returns the number of locations written.
func (p *Patcher) Apply(pass *Pass, lookup func(text string) (string, bool)) int {
	p.prune()
	writes := 0

	for _, e := range pass.Nodes {
		if p.TextSource(e.Node) != e.Raw {
			continue
		}
		want := e.Raw
		if translated, ok := lookup(e.Text); ok {
			want = e.Leading + translated + e.Trailing
		}
		if e.Node.Data == want {
			continue
		}
		p.setText(e.Node, want)
		writes++
	}

	for _, e := range pass.Attributes {
		current, ok := attrValue(e.Element, e.Name)
		if !ok || p.AttrSource(e.Element, e.Name, current) != e.Raw {
			continue
		}
		want := e.Raw
		if translated, ok := lookup(e.Text); ok {
			want = translated
		}
		if current == want {
			continue
		}
		p.setAttr(e.Element, e.Name, current, want)
		writes++
	}

	return writes
}

// Restore writes every snapshot back and forgets them. Locations edited by
// someone else since the last write keep their current value. Restore
// returns the number of locations written.
func (p *Patcher) Restore() int {
	p.prune()
	writes := 0
	for n, s := range p.texts {
		if n.Data == s.written {
			n.Data = s.original
			writes++
		}
	}
	for k, s := range p.attrs {
		if current, ok := attrValue(k.node, k.name); ok && current == s.written {
			setAttrValue(k.node, k.name, s.original)
			writes++
		}
	}
	clear(p.texts)
	clear(p.attrs)
	return writes
}

// Len returns the number of locations currently holding a translation.
func (p *Patcher) Len() int {
	p.prune()
	return len(p.texts) + len(p.attrs)
}

// prune forgets snapshots of nodes that were detached from the document.
func (p *Patcher) prune() {
	for n := range p.texts {
		if !attached(n) {
			delete(p.texts, n)
		}
	}
	for k := range p.attrs {
		if !attached(k.node) {
			delete(p.attrs, k)
		}
	}
}

// attached reports whether n still hangs off a document root.
func attached(n *html.Node) bool {
	for n.Parent != nil {
		n = n.Parent
	}
	return n.Type == html.DocumentNode
}

func (p *Patcher) setText(n *html.Node, value string) {
	s, ok := p.texts[n]
	if !ok || n.Data != s.written {
		s = &snapshot{original: n.Data}
		p.texts[n] = s
	}
	n.Data = value
	s.written = value
	if value == s.original {
		delete(p.texts, n)
	}
}

func (p *Patcher) setAttr(n *html.Node, name, current, value string) {
	k := attrKey{n, name}
	s, ok := p.attrs[k]
	if !ok || current != s.written {
		s = &snapshot{original: current}
		p.attrs[k] = s
	}
	setAttrValue(n, name, value)
	s.written = value
	if value == s.original {
		delete(p.attrs, k)
	}
}

var _ Sources = (*Patcher)(nil)
