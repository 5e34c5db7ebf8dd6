package card

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/churbro/backend/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selection is a domain.Card backed by a goquery selection.
// Locators are CSS selectors; an invalid selector matches nothing.
type Selection struct {
	sel *goquery.Selection
}

// Wrap adapts a goquery selection; only its first node is used
func Wrap(sel *goquery.Selection) Selection {
	return Selection{sel: sel.First()}
}

// Text renders the visible text with one line per block-level element
func (s Selection) Text() string {
	if s.sel == nil {
		return ""
	}
	return RenderText(s.sel.Nodes...)
}

// Attr returns the attribute value of the selected node
func (s Selection) Attr(name string) (string, bool) {
	if s.sel == nil {
		return "", false
	}
	return s.sel.Attr(name)
}

// First returns the first descendant matching any locator, locators tried in order
func (s Selection) First(locators ...string) (domain.Element, bool) {
	if s.sel == nil {
		return nil, false
	}
	for _, locator := range locators {
		found := s.sel.Find(locator)
		if found.Length() > 0 {
			return Selection{sel: found.First()}, true
		}
	}
	return nil, false
}

// All returns every descendant matching the locator in document order
func (s Selection) All(locator string) []domain.Element {
	if s.sel == nil {
		return nil
	}
	found := s.sel.Find(locator)
	elements := make([]domain.Element, 0, found.Length())
	found.Each(func(_ int, el *goquery.Selection) {
		elements = append(elements, Selection{sel: el})
	})
	return elements
}

// Splitter cuts a rendered listing page into cards
type Splitter struct{}

// NewSplitter creates a page splitter
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Split implements domain.CardSplitter
func (s *Splitter) Split(page []byte, selector string) ([]domain.Card, error) {
	return Split(bytes.NewReader(page), selector)
}

// Split parses an HTML page and returns one card per outermost node matching selector
func Split(r io.Reader, selector string) ([]domain.Card, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var cards []domain.Card
	doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
		// nested matches such as data-testid="product-title" belong to their outer card
		if el.ParentsFiltered(selector).Length() > 0 {
			return
		}
		cards = append(cards, Selection{sel: el})
	})
	return cards, nil
}

// Parse builds a single card from an HTML fragment; the first element is the card
func Parse(fragment string) (domain.Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("fragment has no element")
	}
	return Selection{sel: root}, nil
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
	atom.Button: true,
}

var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// RenderText approximates browser innerText: block boundaries become line
// breaks, whitespace inside a line collapses and blank lines are dropped.
func RenderText(nodes ...*html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteByte('\n')
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
