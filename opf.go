package epubtidy

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// opfPackage is the subset of the OPF <package> element the reformatter needs.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Version  string   `xml:"version,attr"`
	Metadata struct {
		Titles []string `xml:"http://purl.org/dc/elements/1.1/ title"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Toc string `xml:"toc,attr"`
	} `xml:"spine"`
}

// entityNameToNumeric maps HTML named entities that show up in real-world
// OPF and NCX files to XML numeric references. encoding/xml only knows the
// five predefined XML entities.
var entityNameToNumeric = map[string]string{
	"nbsp": "&#160;", "mdash": "&#8212;", "ndash": "&#8211;", "hellip": "&#8230;",
	"lsquo": "&#8216;", "rsquo": "&#8217;", "ldquo": "&#8220;", "rdquo": "&#8221;",
	"copy": "&#169;", "reg": "&#174;", "trade": "&#8482;",
	"bull": "&#8226;", "middot": "&#183;",
	"eacute": "&#233;", "egrave": "&#232;", "ecirc": "&#234;", "euml": "&#235;",
	"aacute": "&#225;", "agrave": "&#224;", "acirc": "&#226;", "auml": "&#228;",
	"iacute": "&#237;", "igrave": "&#236;", "icirc": "&#238;", "iuml": "&#239;",
	"oacute": "&#243;", "ograve": "&#242;", "ocirc": "&#244;", "ouml": "&#246;",
	"uacute": "&#250;", "ugrave": "&#249;", "ucirc": "&#251;", "uuml": "&#252;",
	"ntilde": "&#241;", "ccedil": "&#231;",
	"times": "&#215;", "divide": "&#247;", "deg": "&#176;", "para": "&#182;", "sect": "&#167;",
	"laquo": "&#171;", "raquo": "&#187;", "iexcl": "&#161;", "iquest": "&#191;",
}

var htmlEntityPattern = regexp.MustCompile(`(?i)&([a-z]+);`)

// preprocessHTMLEntities rewrites known HTML named entities to numeric
// references so the data can be handed to an XML parser.
func preprocessHTMLEntities(data []byte) []byte {
	return htmlEntityPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := strings.ToLower(string(match[1 : len(match)-1]))
		if ref, ok := entityNameToNumeric[name]; ok {
			return []byte(ref)
		}
		return match
	})
}

// parseOPF decodes the package document.
func parseOPF(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(preprocessHTMLEntities(stripBOM(data)), &pkg); err != nil {
		return nil, fmt.Errorf("epub: parse OPF: %w", err)
	}
	if pkg.Version == "" {
		pkg.Version = "2.0"
	}
	return &pkg, nil
}

// manifest returns the manifest entries in document order.
func (pkg *opfPackage) manifest() []manifestItem {
	items := make([]manifestItem, 0, len(pkg.Manifest.Items))
	for _, it := range pkg.Manifest.Items {
		items = append(items, manifestItem{
			ID:         it.ID,
			Href:       it.Href,
			MediaType:  strings.TrimSpace(it.MediaType),
			Properties: it.Properties,
		})
	}
	return items
}

// title returns the first non-empty dc:title.
func (pkg *opfPackage) title() string {
	for _, t := range pkg.Metadata.Titles {
		if v := strings.TrimSpace(t); v != "" {
			return v
		}
	}
	return ""
}
