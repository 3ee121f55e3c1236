package epubtidy

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// containerPath is the well-known location of container.xml.
const containerPath = "META-INF/container.xml"

const opfMediaType = "application/oebps-package+xml"

type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	RootFiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// parseContainer returns the ZIP path of the OPF package document.
//
// META-INF/container.xml is consulted first (case-insensitively). Without
// it, the first ".opf" entry in the archive is used.
func parseContainer(zr *zip.Reader) (string, error) {
	if f := findFileInsensitive(zr, containerPath); f != nil {
		return parseContainerXML(f)
	}
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("epub: no OPF file found in archive: %w", ErrInvalidEPub)
}

// parseContainerXML picks the rootfile declared with the OPF media type,
// or else the first rootfile with a non-empty full-path.
func parseContainerXML(f *zip.File) (string, error) {
	data, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("epub: read container.xml: %w", err)
	}

	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", fmt.Errorf("epub: parse container.xml: %w", err)
	}
	if len(c.RootFiles) == 0 {
		return "", fmt.Errorf("epub: container.xml has no rootfile entries: %w", ErrInvalidEPub)
	}

	first := ""
	for _, rf := range c.RootFiles {
		p := strings.TrimSpace(rf.FullPath)
		if p == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), opfMediaType) {
			return p, nil
		}
		if first == "" {
			first = p
		}
	}
	if first == "" {
		return "", fmt.Errorf("epub: container.xml rootfile has empty full-path: %w", ErrInvalidEPub)
	}
	return first, nil
}
