// Package dump reads the files a SQL Server export leaves behind: the UTF-16
// schema script and the pipe-delimited raw data files next to it.
package dump

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names the text encoding of a dump file.
type Encoding string

const (
	// UTF16 decodes UTF-16, honouring a BOM and assuming little endian
	// without one (what SQL Server Management Studio writes).
	UTF16 Encoding = "utf-16"
	// UTF8 strips a leading BOM if present.
	UTF8 Encoding = "utf-8"
	// Auto sniffs the BOM: FF FE or FE FF select UTF-16, anything else is
	// read as UTF-8.
	Auto Encoding = "auto"
)

// UnsupportedEncodingError is returned for encoding names ParseEncoding does
// not recognise.
type UnsupportedEncodingError struct {
	Name string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported encoding %q (use utf-16, utf-8 or auto)", e.Name)
}

// ParseEncoding maps a user supplied name onto an Encoding. Empty means Auto.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "utf-16", "utf16", "utf-16le", "ucs-2":
		return UTF16, nil
	case "utf-8", "utf8":
		return UTF8, nil
	default:
		return "", &UnsupportedEncodingError{Name: name}
	}
}

// NewReader returns a reader yielding UTF-8 text decoded from r.
func NewReader(r io.Reader, enc Encoding) (io.Reader, error) {
	switch enc {
	case UTF16:
		return decoding(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), nil
	case UTF8, "":
		return decoding(r, unicode.UTF8BOM), nil
	case Auto:
		return sniff(r)
	default:
		return nil, &UnsupportedEncodingError{Name: string(enc)}
	}
}

// Open opens path for decoding. The caller closes the returned reader.
func Open(path string, enc Encoding) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump: %w", err)
	}
	r, err := NewReader(f, enc)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &decodedFile{Reader: r, file: f}, nil
}

// ReadFile decodes the whole of path into a string.
func ReadFile(path string, enc Encoding) (string, error) {
	rc, err := Open(path, enc)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	if _, err := io.Copy(&sb, rc); err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return sb.String(), nil
}

type decodedFile struct {
	io.Reader
	file *os.File
}

func (d *decodedFile) Close() error {
	return d.file.Close()
}

func decoding(r io.Reader, e encoding.Encoding) io.Reader {
	return transform.NewReader(r, e.NewDecoder())
}

func sniff(r io.Reader) (io.Reader, error) {
	head := make([]byte, 2)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to sniff encoding: %w", err)
	}
	head = head[:n]
	whole := io.MultiReader(bytes.NewReader(head), r)

	if bytes.Equal(head, []byte{0xFF, 0xFE}) || bytes.Equal(head, []byte{0xFE, 0xFF}) {
		return decoding(whole, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), nil
	}
	return decoding(whole, unicode.UTF8BOM), nil
}
