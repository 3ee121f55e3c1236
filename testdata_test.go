package epubtidy

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// buildTestZip creates an in-memory ZIP archive from files (path → content)
// and returns a reader over it.
func buildTestZip(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	data := buildTestEPubBytes(t, files)
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

// buildTestEPubBytes writes files into a ZIP archive. A "mimetype" entry, if
// present, is written first and stored; the rest follow in sorted order.
func buildTestEPubBytes(t testing.TB, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	if mt, ok := files["mimetype"]; ok {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			t.Fatalf("buildTestEPubBytes: create mimetype: %v", err)
		}
		if _, err := io.WriteString(fw, mt); err != nil {
			t.Fatalf("buildTestEPubBytes: write mimetype: %v", err)
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestEPubBytes: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestEPubBytes: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestEPubBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestEPubFile writes the archive to a temporary file and returns its path.
func buildTestEPubFile(t *testing.T, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildTestEPubBytes(t, files), 0o644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// openTestBook opens files as a Book through NewReader.
func openTestBook(t *testing.T, files map[string]string) *Book {
	t.Helper()
	data := buildTestEPubBytes(t, files)
	book, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	t.Cleanup(func() { book.Close() })
	return book
}

// zipEntries returns name → content for every entry of an archive.
func zipEntries(t *testing.T, data []byte) (map[string]string, []*zip.File) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		b, err := readZipFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = string(b)
	}
	return out, zr.File
}

const validContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>测试之书</dc:title>
    <dc:identifier id="bookid">urn:uuid:0000</dc:identifier>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover" href="Text/cover.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="Text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="Styles/main.css" media-type="text/css"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="cover"/>
    <itemref idref="ch1"/>
  </spine>
</package>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head><meta name="dtb:uid" content="urn:uuid:0000"/></head>
  <docTitle><text>测试之书</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>封面</text></navLabel>
      <content src="Text/cover.xhtml"/>
    </navPoint>
    <navPoint id="np2" playOrder="2">
      <navLabel><text>01.20160727 第一章</text></navLabel>
      <content src="Text/ch1.xhtml"/>
      <navPoint id="np3" playOrder="3">
        <navLabel><text>02.20160801 第一节</text></navLabel>
        <content src="Text/ch1.xhtml#s1"/>
      </navPoint>
    </navPoint>
  </navMap>
</ncx>`

const testCover = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>封面</title></head>
<body><p>封面，</p><p>不应合并。</p></body>
</html>`

const testChapter = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>第一章</title><link href="../Styles/main.css" rel="stylesheet" type="text/css"/></head>
<body>
<h1>00.20160727 日记</h1>
<p class="a">第一部分，</p>
<p>第二<br/>部分，</p>
<p>第三 部分。</p>
<p><img src="../Images/a.png"/></p>
<p>完整句子。</p>
</body>
</html>`

// testBookFiles returns a small ePub 2 book with a nested NCX, two XHTML
// documents and a stylesheet.
func testBookFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": validContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/toc.ncx":          testNCX,
		"OEBPS/Text/cover.xhtml": testCover,
		"OEBPS/Text/ch1.xhtml":   testChapter,
		"OEBPS/Styles/main.css":  "p { text-indent: 2em; }",
	}
}
