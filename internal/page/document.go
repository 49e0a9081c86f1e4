// Package page edits parsed HTML pages the way the widget edits the live DOM.
package page

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var ErrElementNotFound = errors.New("element not found")

// Document is a parsed HTML page addressable by element id.
type Document struct {
	root *html.Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Document{root: root}, nil
}

// SetText replaces everything inside the element with a single text node.
func (d *Document) SetText(id, text string) error {
	n := d.element(id)
	if n == nil {
		return fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return nil
}

// Text returns the concatenated text inside the element.
func (d *Document) Text(id string) (string, error) {
	n := d.element(id)
	if n == nil {
		return "", fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String(), nil
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// element finds the first element carrying the id, in document order.
func (d *Document) element(id string) *html.Node {
	var found *html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Namespace == "" && a.Key == "id" && a.Val == id {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(d.root)
	return found
}
