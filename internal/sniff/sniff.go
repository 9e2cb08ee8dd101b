// Package sniff determines the true MIME type of a document from its
// raw bytes, independent of filename or declared content type.
package sniff

import (
	"archive/zip"
	"bytes"
	"strings"
	"unicode/utf8"

	"agridocs/internal/domain"
)

// Detect returns the MIME type for the given buffer. It never fails;
// unrecognized content comes back as application/octet-stream.
func Detect(data []byte) string {
	if len(data) < 4 {
		return domain.MIMEOctetStream
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return domain.MIMEPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return sniffZip(data)
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return domain.MIMEPNG
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return domain.MIMEJPEG
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return domain.MIMEGIF
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return domain.MIMETIFF
	case bytes.HasPrefix(data, []byte("BM")):
		return domain.MIMEBMP
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return domain.MIMEWebP
	}

	if looksTextual(data) {
		return domain.MIMEPlainText
	}
	return domain.MIMEOctetStream
}

// DetectWithName refines Detect with a filename hint: textual content
// named *.csv is reported as text/csv.
func DetectWithName(data []byte, fileName string) string {
	mime := Detect(data)
	if mime == domain.MIMEPlainText && strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return domain.MIMECSV
	}
	return mime
}

// sniffZip disambiguates OOXML containers by probing the archive for
// word/ or xl/ path markers.
func sniffZip(data []byte) string {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.MIMEZIP
	}
	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return domain.MIMEDOCX
		case strings.HasPrefix(f.Name, "xl/"):
			return domain.MIMEXLSX
		}
	}
	return domain.MIMEZIP
}

// looksTextual reports whether the buffer is plausibly UTF-8 text:
// valid encoding and no NUL or other non-whitespace control bytes in
// the leading window.
func looksTextual(data []byte) bool {
	window := data
	if len(window) > 512 {
		window = window[:512]
	}
	if !utf8.Valid(window) {
		return false
	}
	for _, b := range window {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			return false
		}
	}
	return true
}

// IsImage reports whether the MIME type is an image format the OCR
// engine accepts directly.
func IsImage(mime string) bool {
	switch mime {
	case domain.MIMEPNG, domain.MIMEJPEG, domain.MIMEGIF, domain.MIMETIFF, domain.MIMEBMP, domain.MIMEWebP:
		return true
	}
	return false
}
