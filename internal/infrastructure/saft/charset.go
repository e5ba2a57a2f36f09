package saft

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}

	declEncoding = regexp.MustCompile(`^<\?xml[^>]*encoding=["']([A-Za-z0-9._-]+)["']`)
)

// newUTF8Reader decodifica a UTF-8 un archivo externo.
//
// Orden: BOM, encoding de la declaración XML y, sin declaración, la
// heurística (UTF-8 válido, chardet) con Windows-1252 como último recurso.
func newUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if m := declEncoding.FindSubmatch(bytes.TrimLeft(buf, " \t\r\n")); m != nil {
		enc, err := decoderFor(string(m[1]))
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return br, nil
		}
		return transform.NewReader(br, enc.NewDecoder()), nil
	}

	if utf8.Valid(trimPartialRune(buf)) {
		return br, nil
	}
	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-1", "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
		case "ISO-8859-9":
			return transform.NewReader(br, charmap.ISO8859_9.NewDecoder()), nil
		}
	}
	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// decoderFor charset declarado; nil significa UTF-8 (sin transformación).
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252", "iso-8859-1", "latin1":
		return charmap.Windows1252, nil
	case "iso-8859-9":
		return charmap.ISO8859_9, nil
	}
	return nil, fmt.Errorf("saft: charset no soportado %q", name)
}

// trimPartialRune quita una secuencia UTF-8 cortada por el final del peek.
func trimPartialRune(buf []byte) []byte {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(buf); i++ {
		if utf8.RuneStart(buf[len(buf)-i]) {
			if !utf8.FullRune(buf[len(buf)-i:]) {
				return buf[:len(buf)-i]
			}
			break
		}
	}
	return buf
}

// declaredToUTF8 decodifica según el encoding de la declaración XML.
func declaredToUTF8(content []byte) ([]byte, error) {
	m := declEncoding.FindSubmatch(content)
	if m == nil {
		return content, nil
	}
	enc, err := decoderFor(string(m[1]))
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return content, nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return nil, fmt.Errorf("saft: decodificar %s: %w", m[1], err)
	}
	return out, nil
}

// stripDeclaration quita la declaración <?xml ...?> inicial.
func stripDeclaration(content []byte) []byte {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return content
	}
	end := bytes.Index(trimmed, []byte("?>"))
	if end < 0 {
		return content
	}
	return bytes.TrimLeft(trimmed[end+2:], " \t\r\n")
}
