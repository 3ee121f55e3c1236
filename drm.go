package epubtidy

import (
	"archive/zip"
	"encoding/xml"
	"strings"
)

const (
	encryptionFilePath = "META-INF/encryption.xml"
	// sinfFilePath only exists in Apple FairPlay protected books.
	sinfFilePath = "META-INF/sinf.xml"
)

// Font obfuscation algorithms. Obfuscated fonts are not DRM and do not
// affect text documents.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true,
	"http://ns.adobe.com/pdf/enc#RC":     true,
}

type xmlEncryption struct {
	XMLName       xml.Name `xml:"encryption"`
	EncryptedData []struct {
		EncryptionMethod struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
	} `xml:"EncryptedData"`
}

// checkDRM inspects META-INF/encryption.xml. It returns fontObfuscation=true
// when every encrypted entry is an obfuscated font, and ErrDRMProtected when
// anything else is encrypted or the descriptor cannot be parsed.
func checkDRM(zr *zip.Reader) (fontObfuscation bool, err error) {
	if findFileInsensitive(zr, sinfFilePath) != nil {
		return false, ErrDRMProtected
	}

	f := findFileInsensitive(zr, encryptionFilePath)
	if f == nil {
		return false, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return false, err
	}

	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		return false, ErrDRMProtected
	}
	for _, ed := range enc.EncryptedData {
		if !fontObfuscationAlgorithms[strings.TrimSpace(ed.EncryptionMethod.Algorithm)] {
			return false, ErrDRMProtected
		}
		fontObfuscation = true
	}
	return fontObfuscation, nil
}
