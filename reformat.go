package epubtidy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Options configures a Reformatter.
type Options struct {
	// Exclude lists item names (manifest hrefs) or manifest ids that are
	// copied unchanged.
	Exclude []string

	// BlockTags names the paragraph elements to merge. Defaults to "p".
	BlockTags []string

	// Logger receives debug and warning messages. Defaults to slog.Default().
	Logger *slog.Logger

	// Progress, if set, is called once per item before it is handled.
	Progress func(Progress)
}

// Progress describes the item about to be handled.
type Progress struct {
	Index   int // zero-based position in manifest order
	Total   int
	Name    string
	Skipped bool // excluded, or not an XHTML document
}

// Reformatter merges split paragraphs, tightens spacing and rewrites dates
// in the XHTML documents and TOC of a Book.
type Reformatter struct {
	exclude   map[string]bool
	blockTags []string
	logger    *slog.Logger
	progress  func(Progress)
}

// NewReformatter returns a Reformatter configured by opts.
func NewReformatter(opts Options) *Reformatter {
	r := &Reformatter{
		exclude:   make(map[string]bool, len(opts.Exclude)),
		blockTags: opts.BlockTags,
		logger:    opts.Logger,
		progress:  opts.Progress,
	}
	for _, name := range opts.Exclude {
		r.exclude[name] = true
	}
	if len(r.blockTags) == 0 {
		r.blockTags = []string{"p"}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Reformat reads the ePub at inPath, reformats it and writes the result to
// outPath. inPath is never modified.
func Reformat(ctx context.Context, inPath, outPath string, opts Options) error {
	if sameFile(inPath, outPath) {
		return fmt.Errorf("%w: %s", ErrSameFile, outPath)
	}

	book, err := Open(inPath)
	if err != nil {
		return err
	}
	defer book.Close()

	r := NewReformatter(opts)
	for _, w := range book.Warnings() {
		r.logger.Warn("epub warning", "file", inPath, "warning", w)
	}
	if err := r.Book(ctx, book); err != nil {
		return err
	}
	if err := book.WriteFile(outPath); err != nil {
		return err
	}
	r.logger.Info("reformat complete", "title", book.Title(), "output", outPath)
	return nil
}

// Book rewrites the TOC titles and every eligible XHTML item of b in
// manifest order. ctx is checked before each item.
func (r *Reformatter) Book(ctx context.Context, b *Book) error {
	RewriteTOCTitles(b.TOC(), ConvertDates)

	items := b.Items()
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		skip := !r.eligible(it)
		if r.progress != nil {
			r.progress(Progress{Index: i, Total: len(items), Name: it.Name, Skipped: skip})
		}
		if skip {
			r.logger.Debug("item passed through", "name", it.Name, "media_type", it.MediaType)
			continue
		}
		if err := r.item(it); err != nil {
			return fmt.Errorf("epub: reformat %s: %w", it.Name, err)
		}
		r.logger.Debug("item reformatted", "name", it.Name)
	}
	return nil
}

func (r *Reformatter) eligible(it *Item) bool {
	if r.exclude[it.Name] || r.exclude[it.ID] {
		return false
	}
	return strings.EqualFold(it.MediaType, MediaTypeXHTML)
}

func (r *Reformatter) item(it *Item) error {
	data, err := it.Content()
	if err != nil {
		return err
	}
	markup, err := decodePayload(data)
	if err != nil {
		return err
	}
	out, err := r.Document(markup)
	if err != nil {
		return err
	}
	it.SetContent([]byte(out))
	return nil
}

// Document reformats one XHTML document: dates are rewritten throughout,
// line breaks are dropped, split paragraphs are merged into their first
// block and each merged paragraph is tightened.
func (r *Reformatter) Document(markup string) (string, error) {
	doc, err := ParseDocument(ConvertDates(markup))
	if err != nil {
		return "", err
	}
	doc.RemoveLineBreaks()

	blocks := doc.Blocks(r.blockTags...)
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = foldSpaces(b.Text())
	}

	groups := MergeBlocks(texts)
	for _, g := range groups {
		blocks[g.Target].SetText(Tighten(ConvertDates(g.Text)))
		for _, i := range g.Removed() {
			blocks[i].Detach()
		}
	}
	r.logger.Debug("paragraphs merged", "blocks", len(blocks), "groups", len(groups))
	return doc.Render()
}

// spaceFolder maps ideographic and non-breaking spaces to ASCII space.
var spaceFolder = runes.Map(func(r rune) rune {
	if r == '\u3000' || r == '\u00a0' {
		return ' '
	}
	return r
})

func foldSpaces(s string) string {
	out, _, err := transform.String(spaceFolder, s)
	if err != nil {
		return s
	}
	return out
}

// decodePayload decodes UTF-8 item content, dropping a byte order mark.
func decodePayload(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	out, err := textunicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return string(out), nil
}
