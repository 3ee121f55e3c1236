package epubtidy

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"path"
)

// expectedMimetype is the required content of the "mimetype" entry.
const expectedMimetype = "application/epub+zip"

// Book is an opened ePub container. Items and the table of contents may be
// modified in place and written to a new archive with WriteTo or WriteFile.
//
// A Book is not safe for concurrent use by multiple goroutines.
type Book struct {
	zip      *zip.Reader
	closer   io.Closer // non-nil only when created via Open
	srcPath  string
	opfPath  string
	opfDir   string
	title    string
	items    []*Item
	byPath   map[string]*Item
	toc      TOCGroup
	ncx      *ncxDocument
	warnings []string
}

// Open opens the ePub file at path. The caller must call Close when done.
func Open(path string) (*Book, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", path, err)
	}
	b, err := initBook(&zrc.Reader, zrc)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	b.srcPath = path
	return b, nil
}

// NewReader reads an ePub from r. The caller owns r; Close only releases
// internal state.
func NewReader(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epub: open zip: %w", err)
	}
	return initBook(zr, nil)
}

func initBook(zr *zip.Reader, closer io.Closer) (*Book, error) {
	b := &Book{zip: zr, closer: closer}
	b.validateMimetype()

	opfPath, err := parseContainer(zr)
	if err != nil {
		return nil, err
	}
	b.opfPath = opfPath
	b.opfDir = path.Dir(opfPath)

	fontObfuscation, err := checkDRM(zr)
	if err != nil {
		return nil, err
	}
	if fontObfuscation {
		b.warnings = append(b.warnings, "font obfuscation detected; obfuscated fonts are copied unchanged")
	}

	opfFile := findFileInsensitive(zr, opfPath)
	if opfFile == nil {
		return nil, fmt.Errorf("epub: OPF file not found in archive: %s: %w", opfPath, ErrInvalidEPub)
	}
	data, err := readZipFile(opfFile)
	if err != nil {
		return nil, fmt.Errorf("epub: read OPF file: %w", err)
	}
	pkg, err := parseOPF(data)
	if err != nil {
		return nil, err
	}
	b.title = pkg.title()
	b.buildItems(pkg.manifest())

	// A broken NCX is not fatal; the book simply has no TOC to rewrite.
	b.loadTOC(pkg)
	return b, nil
}

// buildItems resolves manifest entries to archive entries.
func (b *Book) buildItems(manifest []manifestItem) {
	b.items = make([]*Item, 0, len(manifest))
	b.byPath = make(map[string]*Item, len(manifest))
	for _, mi := range manifest {
		name := decodeHref(mi.Href)
		p := b.resolveOPFPath(name)
		f := findFileInsensitive(b.zip, p)
		if f == nil && name != mi.Href {
			// Some archives store the percent-encoded name literally.
			f = findFileInsensitive(b.zip, b.resolveOPFPath(mi.Href))
		}
		if f == nil {
			b.warnings = append(b.warnings, fmt.Sprintf("manifest item %q not found in archive: %s", mi.ID, p))
			continue
		}
		if _, dup := b.byPath[f.Name]; dup {
			b.warnings = append(b.warnings, fmt.Sprintf("manifest item %q duplicates %s", mi.ID, f.Name))
			continue
		}
		it := &Item{
			ID:        mi.ID,
			Name:      name,
			Path:      f.Name,
			MediaType: mi.MediaType,
			file:      f,
		}
		b.items = append(b.items, it)
		b.byPath[f.Name] = it
	}
}

// decodeHref percent-decodes a manifest href. Malformed escapes leave the
// href as written.
func decodeHref(href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		return decoded
	}
	return href
}

// validateMimetype records a warning when the first entry is not a
// well-formed "mimetype" file.
func (b *Book) validateMimetype() {
	if len(b.zip.File) == 0 {
		b.warnings = append(b.warnings, "empty ZIP archive; mimetype entry missing")
		return
	}
	first := b.zip.File[0]
	if first.Name != "mimetype" {
		b.warnings = append(b.warnings, "first ZIP entry is not \"mimetype\"")
		return
	}
	data, err := readZipFile(first)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("cannot read mimetype entry: %v", err))
		return
	}
	if string(data) != expectedMimetype {
		b.warnings = append(b.warnings, fmt.Sprintf("unexpected mimetype: %q", string(data)))
	}
}

// resolveOPFPath resolves href relative to the OPF directory.
func (b *Book) resolveOPFPath(href string) string {
	if href == "" {
		return ""
	}
	if b.opfDir == "." {
		return href
	}
	return path.Join(b.opfDir, href)
}

// Close releases resources held by the Book. Close is idempotent.
func (b *Book) Close() error {
	if b.closer != nil {
		err := b.closer.Close()
		b.closer = nil
		return err
	}
	return nil
}

// Title returns the first dc:title of the book, or "".
func (b *Book) Title() string {
	return b.title
}

// Items returns the manifest items in manifest order. The returned items are
// shared with the Book; SetContent on them changes what is written.
func (b *Book) Items() []*Item {
	return append([]*Item(nil), b.items...)
}

// Item returns the item whose Name or ID equals name.
func (b *Book) Item(name string) (*Item, bool) {
	for _, it := range b.items {
		if it.Name == name || it.ID == name {
			return it, true
		}
	}
	return nil, false
}

// TOC returns the table of contents. Link titles may be edited in place.
// Books without an NCX return an empty group.
func (b *Book) TOC() TOCGroup {
	return b.toc
}

// HasTOC reports whether the book carries an NCX table of contents.
func (b *Book) HasTOC() bool {
	return len(b.toc) > 0
}

// Warnings returns the non-fatal problems found while reading.
func (b *Book) Warnings() []string {
	return append([]string(nil), b.warnings...)
}

// ReadFile reads an archive entry by its ZIP path, falling back to a
// case-insensitive match.
func (b *Book) ReadFile(name string) ([]byte, error) {
	f := findFileInsensitive(b.zip, name)
	if f == nil {
		return nil, ErrFileNotFound
	}
	return readZipFile(f)
}

// isItem reports whether an archive entry belongs to a manifest item.
func (b *Book) isItem(name string) (*Item, bool) {
	it, ok := b.byPath[name]
	return it, ok
}
