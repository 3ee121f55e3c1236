// Package epubtidy reformats the text of ePub 2 and ePub 3 books.
//
// It merges paragraphs that were split across several <p> blocks, removes
// spurious spacing between characters while keeping the space after
// punctuation, and rewrites compact serial dates such as "00.20160727" into
// "【2016-07-27】". Everything else in the archive is copied unchanged.
//
// # Reformatting a file
//
// [Reformat] reads a book, processes it and writes a new archive:
//
//	err := epubtidy.Reformat(ctx, "in.epub", "out.epub", epubtidy.Options{
//	    Exclude: []string{"Text/cover.xhtml"},
//	})
//
// # Working with a Book
//
// [Open] and [NewReader] return a [Book] whose manifest [Item] payloads and
// NCX table of contents can be edited in place before [Book.WriteFile]:
//
//	book, err := epubtidy.Open("book.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer book.Close()
//
//	r := epubtidy.NewReformatter(epubtidy.Options{})
//	if err := r.Book(ctx, book); err != nil {
//	    log.Fatal(err)
//	}
//	err = book.WriteFile("book.tidy.epub")
//
// # Text rules
//
// The rules are exposed individually: [ConvertDates], [EndsSentence],
// [MergeBlocks] and [Tighten]. They operate on plain strings and have no
// side effects.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - [ErrDRMProtected] – the file is DRM encrypted
//   - [ErrInvalidEPub] – structural validation failed
//   - [ErrFileNotFound] – a requested file is not in the archive
//   - [ErrInvalidEncoding] – a document is not valid UTF-8
//   - [ErrSameFile] – the output path is the input file
//
// Every error aborts the run; no output file is left behind.
package epubtidy
