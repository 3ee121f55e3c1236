package epubtidy

import (
	"archive/zip"

	"github.com/antchfx/xmlquery"
)

// Media types the package cares about.
const (
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypeNCX   = "application/x-dtbncx+xml"
)

// Item is a single manifest entry of the ePub: one chapter document,
// stylesheet, image, and so on. Content is loaded lazily from the archive
// and replaced wholesale by SetContent.
type Item struct {
	// ID is the manifest id attribute.
	ID string

	// Name is the percent-decoded manifest href, relative to the OPF
	// directory (e.g., "Text/chapter01.xhtml"). It identifies the item for
	// exclusion.
	Name string

	// Path is the ZIP-internal path of the item.
	Path string

	// MediaType is the MIME type declared in the manifest.
	MediaType string

	file     *zip.File
	content  []byte
	loaded   bool
	modified bool
}

// Content returns the item payload. The first call reads it from the
// archive; later calls return the cached or replaced bytes.
func (it *Item) Content() ([]byte, error) {
	if it.loaded {
		return it.content, nil
	}
	if it.file == nil {
		return nil, ErrFileNotFound
	}
	data, err := readZipFile(it.file)
	if err != nil {
		return nil, err
	}
	it.content = data
	it.loaded = true
	return it.content, nil
}

// SetContent replaces the item payload. The new bytes are written when the
// book is serialized.
func (it *Item) SetContent(data []byte) {
	it.content = data
	it.loaded = true
	it.modified = true
}

// Modified reports whether SetContent has been called.
func (it *Item) Modified() bool {
	return it.modified
}

// TOCNode is an entry of the table of contents: either a TOCGroup of nested
// nodes or a *TOCLink leaf.
type TOCNode interface {
	tocNode()
}

// TOCGroup is an ordered sequence of TOC nodes. A navigation point with
// children is represented as TOCGroup{link, TOCGroup{children...}}.
type TOCGroup []TOCNode

// TOCLink is a leaf TOC entry.
type TOCLink struct {
	// Title is the display text of the entry. It may be changed in place;
	// the change is written back to the NCX when the book is serialized.
	Title string

	// Href is the ZIP-internal target path, possibly with a fragment.
	Href string

	// original is the title as read, used to detect edits.
	original string
	// label is the NCX <text> element holding the title.
	label *xmlquery.Node
}

func (TOCGroup) tocNode() {}

func (*TOCLink) tocNode() {}

// WalkTOC calls fn for every TOCLink under n in document order.
func WalkTOC(n TOCNode, fn func(*TOCLink)) {
	switch v := n.(type) {
	case TOCGroup:
		for _, child := range v {
			WalkTOC(child, fn)
		}
	case *TOCLink:
		if v != nil {
			fn(v)
		}
	}
}

// manifestItem represents an entry in the OPF <manifest> element.
type manifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
}
