// Package htmlnode adapts parsed HTML to the domain.ContentNode capability interface.
package htmlnode

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/marketlens/backend/internal/domain"
	"golang.org/x/net/html"
)

// Node is a goquery selection viewed as a ContentNode. Patterns are CSS selectors.
// Nodes are never mutated after construction, so concurrent reads are safe.
type Node struct {
	sel  *goquery.Selection
	base *url.URL
}

var _ domain.ContentNode = (*Node)(nil)

// NewDocument parses an HTML page. pageURL may be empty; when set it (and any <base>
// element) is used to resolve relative links.
func NewDocument(body []byte, pageURL string) (*Node, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	// script and style bodies would leak into free-text scans
	doc.Find("script, style, noscript, template").Remove()

	base, err := documentBase(doc, pageURL)
	if err != nil {
		return nil, err
	}
	return &Node{sel: doc.Selection, base: base}, nil
}

// Parser implements domain.DocumentParser on top of NewDocument
type Parser struct{}

// Parse parses an HTML page into its root content node
func (Parser) Parse(body []byte, pageURL string) (domain.ContentNode, error) {
	node, err := NewDocument(body, pageURL)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func documentBase(doc *goquery.Document, pageURL string) (*url.URL, error) {
	var base *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("%w: page url: %v", domain.ErrInvalidRequest, err)
		}
		base = parsed
	}

	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return base, nil
	}
	declared, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return base, nil
	}
	if base == nil {
		return declared, nil
	}
	return base.ResolveReference(declared), nil
}

// Text returns the combined text of the node and its descendants. Block-level
// elements start on a new line so free-text scans never join unrelated fields.
func (n *Node) Text() string {
	var sb strings.Builder
	for _, root := range n.sel.Nodes {
		writeText(&sb, root)
	}
	return sb.String()
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "option": true, "p": true, "pre": true,
	"section": true, "table": true, "tbody": true, "td": true, "tfoot": true, "th": true,
	"thead": true, "tr": true, "ul": true,
}

func writeText(sb *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		sb.WriteString(node.Data)
		return
	case html.CommentNode:
		return
	}

	block := node.Type == html.ElementNode && blockElements[node.Data]
	if block {
		sb.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(sb, child)
	}
	if block {
		sb.WriteByte('\n')
	}
}

// Find returns descendants matching a CSS selector in document order.
// An invalid selector matches nothing.
func (n *Node) Find(pattern string) []domain.ContentNode {
	matches := n.sel.Find(pattern)
	nodes := make([]domain.ContentNode, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{sel: s, base: n.base})
	})
	return nodes
}

// Matches reports whether the node itself matches a CSS selector
func (n *Node) Matches(pattern string) bool {
	return n.sel.Is(pattern)
}

// Attr returns an attribute of the node itself
func (n *Node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// ResolveLink resolves href against the document URL. Without a document URL, or when
// href cannot be parsed, href is returned unchanged.
func (n *Node) ResolveLink(href string) string {
	href = strings.TrimSpace(href)
	if n.base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return n.base.ResolveReference(ref).String()
}
