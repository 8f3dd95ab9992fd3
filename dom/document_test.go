package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestParse_Title(t *testing.T) {
	d, err := Parse(`<html><head><title>Home</title></head><body><p>Hello</p></body></html>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if d.Title() != "Home" {
		t.Errorf("Title() = %q, want %q", d.Title(), "Home")
	}
	if d.Text("p") != "Hello" {
		t.Errorf("Text(p) = %q, want %q", d.Text("p"), "Hello")
	}
}

func TestDocument_MutationsNotifyWatchers(t *testing.T) {
	d, _ := Parse(`<body><div id="main"><p>Hello</p></div></body>`)

	var got []Record
	cancel := d.Watch(func(r Record) { got = append(got, r) })
	defer cancel()

	d.AppendHTML("#main", "<p>World</p>")
	d.SetText("p", "Changed")
	d.SetAttr("#main", "title", "Main area")
	d.RemoveAttr("#main", "title")
	d.Remove("p")
	d.SetTitle("New title")

	wantOps := []Op{OpInsert, OpText, OpAttr, OpAttrDel, OpRemove, OpTitle}
	if len(got) != len(wantOps) {
		t.Fatalf("got %d records, want %d", len(got), len(wantOps))
	}
	for i, op := range wantOps {
		if got[i].Op != op {
			t.Errorf("record[%d].Op = %s, want %s", i, got[i].Op, op)
		}
	}
	if got[1].Matched != 2 {
		t.Errorf("SetText matched %d elements, want 2", got[1].Matched)
	}
	if d.Title() != "New title" {
		t.Errorf("Title() = %q after SetTitle", d.Title())
	}
}

func TestDocument_NoMatchDoesNotNotify(t *testing.T) {
	d, _ := Parse(`<p>Hello</p>`)

	calls := 0
	d.Watch(func(Record) { calls++ })

	if n := d.SetText(".missing", "x"); n != 0 {
		t.Errorf("SetText matched %d, want 0", n)
	}
	if calls != 0 {
		t.Errorf("watcher called %d times, want 0", calls)
	}
}

func TestDocument_WatchCancel(t *testing.T) {
	d, _ := Parse(`<p>Hello</p>`)

	calls := 0
	cancel := d.Watch(func(Record) { calls++ })
	d.SetText("p", "one")
	cancel()
	cancel()
	d.SetText("p", "two")

	if calls != 1 {
		t.Errorf("watcher called %d times, want 1", calls)
	}
}

func TestDocument_DoIsSilent(t *testing.T) {
	d, _ := Parse(`<p>Hello</p>`)

	calls := 0
	d.Watch(func(Record) { calls++ })

	d.Do(func(root *html.Node) {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				n.Data = "Hola"
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
	})

	if calls != 0 {
		t.Errorf("Do should not notify watchers, got %d calls", calls)
	}
	out, err := d.HTML()
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if !strings.Contains(out, "<p>Hola</p>") {
		t.Errorf("expected rewritten text, got %s", out)
	}
}

func TestDocument_SetTitleCreatesElement(t *testing.T) {
	d, _ := Parse(`<html><head></head><body></body></html>`)
	d.SetTitle("Fresh")

	if d.Title() != "Fresh" {
		t.Errorf("Title() = %q, want %q", d.Title(), "Fresh")
	}
}

func TestRecord_Structural(t *testing.T) {
	if !(Record{Op: OpInsert}).Structural() {
		t.Error("insert should be structural")
	}
	if (Record{Op: OpAttr}).Structural() {
		t.Error("attr should not be structural")
	}
}
