package epubtidy

import (
	"strings"
	"testing"
)

// tocTitles flattens a TOC into its link titles, marking nesting with
// brackets: "a [b [c]]".
func tocTitles(n TOCNode) string {
	switch v := n.(type) {
	case TOCGroup:
		parts := make([]string, 0, len(v))
		for _, c := range v {
			parts = append(parts, tocTitles(c))
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *TOCLink:
		return v.Title
	}
	return ""
}

func TestParseNCX(t *testing.T) {
	_, toc, err := parseNCX([]byte(testNCX), "OEBPS/toc.ncx")
	if err != nil {
		t.Fatalf("parseNCX() error = %v", err)
	}
	if len(toc) != 2 {
		t.Fatalf("len(toc) = %d, want 2", len(toc))
	}

	cover, ok := toc[0].(*TOCLink)
	if !ok {
		t.Fatalf("toc[0] = %T, want *TOCLink", toc[0])
	}
	if cover.Title != "封面" || cover.Href != "OEBPS/Text/cover.xhtml" {
		t.Errorf("toc[0] = %+v", cover)
	}

	chapter, ok := toc[1].(TOCGroup)
	if !ok || len(chapter) != 2 {
		t.Fatalf("toc[1] = %#v, want TOCGroup{link, children}", toc[1])
	}
	head, ok := chapter[0].(*TOCLink)
	if !ok || head.Title != "01.20160727 第一章" {
		t.Errorf("chapter head = %#v", chapter[0])
	}
	children, ok := chapter[1].(TOCGroup)
	if !ok || len(children) != 1 {
		t.Fatalf("chapter children = %#v", chapter[1])
	}
	if sub := children[0].(*TOCLink); sub.Href != "OEBPS/Text/ch1.xhtml#s1" {
		t.Errorf("section href = %q", sub.Href)
	}
}

func TestParseNCXEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{
			name: "no navMap",
			data: `<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/"><head/></ncx>`,
			want: "[]",
		},
		{
			name: "entities and BOM",
			data: "\xEF\xBB\xBF" + `<ncx><navMap><navPoint><navLabel><text>A&mdash;B</text></navLabel><content src="a.xhtml"/></navPoint></navMap></ncx>`,
			want: "[A—B]",
		},
		{
			name: "missing label keeps link",
			data: `<ncx><navMap><navPoint><content src="a.xhtml"/></navPoint></navMap></ncx>`,
			want: "[]",
		},
		{
			name:    "malformed",
			data:    `<ncx><navMap>`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, toc, err := parseNCX([]byte(tt.data), "toc.ncx")
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseNCX() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseNCX() error = %v", err)
			}
			if got := tocTitles(toc); got != tt.want {
				t.Errorf("titles = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteTOCTitles(t *testing.T) {
	toc := TOCGroup{
		&TOCLink{Title: "01.20160727 一"},
		TOCGroup{
			&TOCLink{Title: "二"},
			TOCGroup{&TOCLink{Title: "12.20231201"}, TOCGroup{}},
		},
	}
	RewriteTOCTitles(toc, ConvertDates)

	want := "[【2016-07-27】 一 [二 [【2023-12-01】 []]]]"
	if got := tocTitles(toc); got != want {
		t.Errorf("titles = %q, want %q", got, want)
	}
}

func TestWalkTOCNilLink(t *testing.T) {
	var n int
	WalkTOC(TOCGroup{(*TOCLink)(nil), &TOCLink{Title: "x"}}, func(*TOCLink) { n++ })
	if n != 1 {
		t.Errorf("visited %d links, want 1", n)
	}
}

func TestBookTOC(t *testing.T) {
	book := openTestBook(t, testBookFiles())
	if !book.HasTOC() {
		t.Fatal("HasTOC() = false")
	}
	want := "[封面 [01.20160727 第一章 [02.20160801 第一节]]]"
	if got := tocTitles(book.TOC()); got != want {
		t.Errorf("TOC titles = %q, want %q", got, want)
	}
}

func TestBookWithoutTOC(t *testing.T) {
	files := testBookFiles()
	delete(files, "OEBPS/toc.ncx")
	book := openTestBook(t, files)
	if book.HasTOC() {
		t.Error("HasTOC() = true for book without NCX file")
	}
	if len(book.Warnings()) == 0 {
		t.Error("expected a warning for the missing NCX entry")
	}
}

func TestSyncTOC(t *testing.T) {
	book := openTestBook(t, testBookFiles())
	ncx, ok := book.Item("ncx")
	if !ok {
		t.Fatal("NCX item missing")
	}

	book.syncTOC()
	if ncx.Modified() {
		t.Fatal("syncTOC() modified an unedited NCX")
	}

	RewriteTOCTitles(book.TOC(), ConvertDates)
	book.syncTOC()
	if !ncx.Modified() {
		t.Fatal("syncTOC() did not store the edited NCX")
	}

	data, err := ncx.Content()
	if err != nil {
		t.Fatal(err)
	}
	_, toc, err := parseNCX(data, ncx.Path)
	if err != nil {
		t.Fatalf("re-parse NCX: %v", err)
	}
	want := "[封面 [【2016-07-27】 第一章 [【2016-08-01】 第一节]]]"
	if got := tocTitles(toc); got != want {
		t.Errorf("written titles = %q, want %q", got, want)
	}
	if !strings.Contains(string(data), `playOrder="3"`) {
		t.Error("navPoint attributes lost in re-serialized NCX")
	}
}
