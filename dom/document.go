// Package dom holds the live HTML document that the translation engine reads
// from and writes to.
//
// Application code changes the tree through the mutation methods on
// Document, which notify registered watchers. The engine gets exclusive
// access to the raw node tree through Do; writes made there are not reported.
package dom

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a mutable HTML document shared between the application and
// the translation engine.
type Document struct {
	mu  sync.Mutex
	doc *goquery.Document

	wmu      sync.Mutex
	watchers map[int]func(Record)
	nextID   int
}

// Parse parses an HTML string into a Document.
func Parse(content string) (*Document, error) {
	return NewDocument(strings.NewReader(content))
}

// NewDocument parses HTML from r.
func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		doc:      doc,
		watchers: make(map[int]func(Record)),
	}, nil
}

// Do runs fn with exclusive access to the root node. Changes made by fn are
// not reported to watchers.
func (d *Document) Do(fn func(root *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.doc.Nodes[0])
}

// HTML renders the current tree.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// Text returns the combined text of the elements matching selector.
func (d *Document) Text(selector string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Text()
}

// Attr returns the attribute value of the first element matching selector.
func (d *Document) Attr(selector, name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).First().Attr(name)
}

// Title returns the text of the document's <title> element.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find("title").First().Text()
}

// SetText replaces the content of every element matching selector with text.
func (d *Document) SetText(selector, text string) int {
	return d.mutate(Record{Op: OpText, Selector: selector, Value: text}, func(s *goquery.Selection) {
		s.SetText(text)
	})
}

// SetAttr sets an attribute on every element matching selector.
func (d *Document) SetAttr(selector, name, value string) int {
	return d.mutate(Record{Op: OpAttr, Selector: selector, Name: name, Value: value}, func(s *goquery.Selection) {
		s.SetAttr(name, value)
	})
}

// RemoveAttr removes an attribute from every element matching selector.
func (d *Document) RemoveAttr(selector, name string) int {
	return d.mutate(Record{Op: OpAttrDel, Selector: selector, Name: name}, func(s *goquery.Selection) {
		s.RemoveAttr(name)
	})
}

// AppendHTML parses fragment and appends it to every element matching selector.
func (d *Document) AppendHTML(selector, fragment string) int {
	return d.mutate(Record{Op: OpInsert, Selector: selector, Value: fragment}, func(s *goquery.Selection) {
		s.AppendHtml(fragment)
	})
}

// Remove detaches every element matching selector from the tree.
func (d *Document) Remove(selector string) int {
	return d.mutate(Record{Op: OpRemove, Selector: selector}, func(s *goquery.Selection) {
		s.Remove()
	})
}

// SetTitle replaces the document title, creating a <title> in <head> when
// the document has none.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	sel := d.doc.Find("title").First()
	if sel.Length() == 0 {
		d.doc.Find("head").First().AppendHtml("<title></title>")
		sel = d.doc.Find("title").First()
	}
	sel.SetText(title)
	matched := sel.Length()
	d.mu.Unlock()

	d.notify(Record{Op: OpTitle, Selector: "title", Value: title, Matched: matched})
}

// Watch registers fn to be called after every mutation made through the
// Document API. Calls happen on the mutating goroutine, outside the tree
// lock. The returned function unregisters fn.
func (d *Document) Watch(fn func(Record)) (cancel func()) {
	d.wmu.Lock()
	id := d.nextID
	d.nextID++
	d.watchers[id] = fn
	d.wmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.wmu.Lock()
			delete(d.watchers, id)
			d.wmu.Unlock()
		})
	}
}

func (d *Document) mutate(rec Record, fn func(*goquery.Selection)) int {
	d.mu.Lock()
	sel := d.doc.Find(rec.Selector)
	matched := sel.Length()
	if matched > 0 {
		fn(sel)
	}
	d.mu.Unlock()

	if matched == 0 {
		return 0
	}
	rec.Matched = matched
	d.notify(rec)
	return matched
}

func (d *Document) notify(rec Record) {
	d.wmu.Lock()
	fns := make([]func(Record), 0, len(d.watchers))
	for _, fn := range d.watchers {
		fns = append(fns, fn)
	}
	d.wmu.Unlock()

	for _, fn := range fns {
		fn(rec)
	}
}
