package epubtidy

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// maxDecompressSize caps the decompressed size of a single ZIP entry.
const maxDecompressSize int64 = 256 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// findFileInsensitive looks up a ZIP entry by exact path first and falls
// back to a case-insensitive comparison. Returns nil if nothing matches.
func findFileInsensitive(zr *zip.Reader, name string) *zip.File {
	var fold *zip.File
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
		if fold == nil && strings.EqualFold(f.Name, name) {
			fold = f
		}
	}
	return fold
}

// resolveRelativePath resolves href against the directory of basePath.
// It returns "" for absolute hrefs and for results escaping the archive root.
func resolveRelativePath(basePath, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "/") {
		return ""
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	resolved := path.Clean(path.Join(path.Dir(basePath), href))
	if !isSafePath(resolved) {
		return ""
	}
	return resolved
}

// isSafePath reports whether p stays inside the archive root.
func isSafePath(p string) bool {
	c := path.Clean(p)
	return !path.IsAbs(c) && c != ".." && !strings.HasPrefix(c, "../")
}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// readZipFile reads a whole entry. Entries outside the archive root and
// entries inflating past maxDecompressSize are refused.
func readZipFile(f *zip.File) ([]byte, error) {
	return readZipFileWithLimit(f, maxDecompressSize)
}

func readZipFileWithLimit(f *zip.File, limit int64) ([]byte, error) {
	switch {
	case !isSafePath(f.Name):
		return nil, fmt.Errorf("epub: entry outside archive root: %s", f.Name)
	case f.UncompressedSize64 > uint64(limit):
		return nil, fmt.Errorf("epub: entry %s declares %d bytes, limit is %d", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	buf.Grow(int(f.UncompressedSize64))
	// Declared sizes can lie; one byte past the limit proves it.
	n, err := buf.ReadFrom(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("epub: read entry %s: %w", f.Name, err)
	}
	if n > limit {
		return nil, fmt.Errorf("epub: entry %s inflates past %d bytes", f.Name, limit)
	}
	return buf.Bytes(), nil
}
