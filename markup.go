package epubtidy

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed XHTML content document.
type Document struct {
	decl string // leading XML declaration, re-emitted verbatim
	root *html.Node
}

// Block is a paragraph-level element of a Document.
type Block struct {
	node *html.Node
}

var xmlDeclPattern = regexp.MustCompile(`^\s*<\?xml[^>]*\?>`)

// selfClosingPattern matches XML-style empty element tags such as <p/> or
// <div class="x"/>.
var selfClosingPattern = regexp.MustCompile(`(?i)<([a-z][a-z0-9:_-]*)(\s[^<>]*?)?\s*/>`)

// voidElements may legitimately be self-closing in HTML.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// skipTags hold no readable text.
var skipTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// normalizeSelfClosingTags expands <tag/> into <tag></tag> for non-void
// elements. The HTML parser ignores the trailing slash, so an XHTML <p/>
// would otherwise swallow everything up to the next block.
func normalizeSelfClosingTags(markup string) string {
	return selfClosingPattern.ReplaceAllStringFunc(markup, func(m string) string {
		sub := selfClosingPattern.FindStringSubmatch(m)
		name := sub[1]
		if voidElements[atom.Lookup([]byte(strings.ToLower(name)))] {
			return m
		}
		return "<" + name + sub[2] + "></" + name + ">"
	})
}

// ParseDocument parses XHTML markup. Parsing is lenient: ill-formed markup
// yields a best-effort tree rather than an error.
func ParseDocument(markup string) (*Document, error) {
	decl := xmlDeclPattern.FindString(markup)
	body := markup[len(decl):]

	root, err := html.Parse(strings.NewReader(normalizeSelfClosingTags(body)))
	if err != nil {
		return nil, err
	}
	return &Document{decl: strings.TrimSpace(decl), root: root}, nil
}

// RemoveLineBreaks detaches every <br> element.
func (d *Document) RemoveLineBreaks() {
	var brs []*html.Node
	walkElements(d.root, func(n *html.Node) bool {
		if n.DataAtom == atom.Br {
			brs = append(brs, n)
		}
		return true
	})
	for _, n := range brs {
		n.Parent.RemoveChild(n)
	}
}

// Blocks returns the elements named by tags in document order. Matching
// elements nested inside another match are not returned separately.
// With no tags, <p> elements are returned.
func (d *Document) Blocks(tags ...string) []*Block {
	if len(tags) == 0 {
		tags = []string{"p"}
	}
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(strings.TrimSpace(t))] = true
	}

	var blocks []*Block
	walkElements(d.root, func(n *html.Node) bool {
		if want[n.Data] {
			blocks = append(blocks, &Block{node: n})
			return false
		}
		return true
	})
	return blocks
}

// Render serializes the document back to markup.
func (d *Document) Render() (string, error) {
	var sb strings.Builder
	if d.decl != "" {
		sb.WriteString(d.decl)
		sb.WriteByte('\n')
	}
	if err := html.Render(&sb, d.root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Text returns the block's descendant text. Each text node is trimmed and
// the pieces are joined without a separator; comments, scripts and styles
// are ignored.
func (b *Block) Text() string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				sb.WriteString(strings.TrimSpace(c.Data))
			case html.ElementNode:
				if !skipTags[c.DataAtom] {
					collect(c)
				}
			}
		}
	}
	collect(b.node)
	return sb.String()
}

// SetText replaces all content of the block with a single text node.
// Attributes of the block element are kept.
func (b *Block) SetText(text string) {
	for c := b.node.FirstChild; c != nil; c = b.node.FirstChild {
		b.node.RemoveChild(c)
	}
	b.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Detach removes the block from the document.
func (b *Block) Detach() {
	if b.node.Parent != nil {
		b.node.Parent.RemoveChild(b.node)
	}
}

// walkElements visits element nodes depth-first in document order. fn
// returns false to skip the node's descendants.
func walkElements(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !fn(c) {
			continue
		}
		walkElements(c, fn)
	}
}
