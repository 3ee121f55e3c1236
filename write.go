package epubtidy

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteTo serializes the book as a new ePub archive.
//
// The mimetype entry is written first and stored uncompressed. Every other
// entry follows in its original order: modified items are recompressed,
// everything else is copied without recompression.
func (b *Book) WriteTo(w io.Writer) error {
	b.syncTOC()

	zw := zip.NewWriter(w)
	if err := writeMimetype(zw); err != nil {
		return err
	}
	for _, f := range b.zip.File {
		if f.Name == "mimetype" {
			continue
		}
		if it, ok := b.isItem(f.Name); ok && it.Modified() {
			if err := writeEntry(zw, f, it.content); err != nil {
				return err
			}
			continue
		}
		if err := zw.Copy(f); err != nil {
			return fmt.Errorf("epub: copy %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("epub: finish archive: %w", err)
	}
	return nil
}

// WriteFile writes the book to path. The archive is assembled in a
// temporary file next to path and renamed into place, so a failed write
// never leaves a partial file behind. Writing over the file the book was
// opened from is refused with ErrSameFile.
func (b *Book) WriteFile(path string) (err error) {
	if b.srcPath != "" && sameFile(b.srcPath, path) {
		return fmt.Errorf("%w: %s", ErrSameFile, path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".epubtidy-*.tmp")
	if err != nil {
		return fmt.Errorf("epub: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = b.WriteTo(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("epub: chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("epub: close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("epub: rename to %s: %w", path, err)
	}
	return nil
}

func writeMimetype(zw *zip.Writer) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("epub: create mimetype: %w", err)
	}
	if _, err := io.WriteString(w, expectedMimetype); err != nil {
		return fmt.Errorf("epub: write mimetype: %w", err)
	}
	return nil
}

// writeEntry writes data under the name and timestamp of the original entry.
func writeEntry(zw *zip.Writer, orig *zip.File, data []byte) error {
	hdr := &zip.FileHeader{
		Name:     orig.Name,
		Method:   zip.Deflate,
		Modified: orig.Modified,
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("epub: create %s: %w", orig.Name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("epub: write %s: %w", orig.Name, err)
	}
	return nil
}

// sameFile reports whether a and b name the same file. A missing b is never
// the same file.
func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false
		}
		absA, errA := filepath.Abs(a)
		absB, errB := filepath.Abs(b)
		return errA == nil && errB == nil && absA == absB
	}
	return os.SameFile(sa, sb)
}
