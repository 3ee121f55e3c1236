package epubtidy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ncxDocument is the parsed NCX kept alive so edited titles can be written
// back into the original tree.
type ncxDocument struct {
	item *Item
	root *xmlquery.Node
}

// loadTOC locates and parses the NCX. Failures are recorded as warnings and
// leave the book with an empty TOC.
func (b *Book) loadTOC(pkg *opfPackage) {
	b.toc = TOCGroup{}

	it := b.ncxItem(pkg)
	if it == nil {
		return
	}
	data, err := it.Content()
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("failed to read NCX file: %v", err))
		return
	}
	root, toc, err := parseNCX(data, it.Path)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("failed to parse NCX file: %v", err))
		return
	}
	b.ncx = &ncxDocument{item: it, root: root}
	b.toc = toc
}

// ncxItem returns the item named by the spine toc attribute, or the first
// item with the NCX media type.
func (b *Book) ncxItem(pkg *opfPackage) *Item {
	if id := strings.TrimSpace(pkg.Spine.Toc); id != "" {
		for _, it := range b.items {
			if it.ID == id {
				return it
			}
		}
	}
	for _, it := range b.items {
		if strings.EqualFold(it.MediaType, MediaTypeNCX) {
			return it
		}
	}
	return nil
}

// parseNCX parses NCX data into an xmlquery tree and the TOC built from its
// navMap. ncxPath is the ZIP path of the NCX, used to resolve content src
// attributes.
func parseNCX(data []byte, ncxPath string) (*xmlquery.Node, TOCGroup, error) {
	root, err := xmlquery.Parse(bytes.NewReader(preprocessHTMLEntities(stripBOM(data))))
	if err != nil {
		return nil, nil, fmt.Errorf("epub: parse NCX: %w", err)
	}
	navMap := xmlquery.FindOne(root, "//navMap")
	if navMap == nil {
		return root, TOCGroup{}, nil
	}
	return root, convertNavPoints(navMap, ncxPath), nil
}

// convertNavPoints converts the navPoint children of parent. A navPoint with
// nested navPoints becomes TOCGroup{link, TOCGroup{children...}}.
func convertNavPoints(parent *xmlquery.Node, ncxPath string) TOCGroup {
	group := TOCGroup{}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode || c.Data != "navPoint" {
			continue
		}
		link := &TOCLink{label: xmlquery.FindOne(c, "navLabel/text")}
		if link.label != nil {
			link.Title = strings.TrimSpace(link.label.InnerText())
			link.original = link.Title
		}
		if content := c.SelectElement("content"); content != nil {
			link.Href = resolveRelativePath(ncxPath, content.SelectAttr("src"))
		}

		if children := convertNavPoints(c, ncxPath); len(children) > 0 {
			group = append(group, TOCGroup{link, children})
		} else {
			group = append(group, link)
		}
	}
	return group
}

// RewriteTOCTitles replaces every link title under n with fn(title),
// preserving the nesting structure.
func RewriteTOCTitles(n TOCNode, fn func(string) string) {
	WalkTOC(n, func(l *TOCLink) {
		l.Title = fn(l.Title)
	})
}

// syncTOC writes edited link titles back into the NCX tree and stores the
// re-serialized NCX as the item payload. An NCX without edits is left as is.
func (b *Book) syncTOC() {
	if b.ncx == nil {
		return
	}
	changed := false
	WalkTOC(b.toc, func(l *TOCLink) {
		if l.Title == l.original || l.label == nil {
			return
		}
		setNodeText(l.label, l.Title)
		l.original = l.Title
		changed = true
	})
	if changed {
		b.ncx.item.SetContent([]byte(b.ncx.root.OutputXML(true)))
	}
}

// setNodeText replaces the children of n with a single text node.
func setNodeText(n *xmlquery.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		xmlquery.RemoveFromTree(c)
		c = next
	}
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
}
