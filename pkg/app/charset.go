package app

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SMFのテキストイベントは文字コードを規定しないため、表示時に変換する
var charsets = map[string]encoding.Encoding{
	"utf-8":     unicode.UTF8,
	"shift_jis": japanese.ShiftJIS,
	"latin1":    charmap.ISO8859_1,
}

// textDecoder テキストイベントのバイト列を文字列に変換する
type textDecoder struct {
	name string
	enc  encoding.Encoding
}

func newTextDecoder(name string) (*textDecoder, error) {
	enc, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unsupported charset: %s", name)
	}
	return &textDecoder{name: name, enc: enc}, nil
}

// Decode 変換できないバイトは置換文字になる
func (d *textDecoder) Decode(raw []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(raw), d.enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode text as %s: %w", d.name, err)
	}
	return string(decoded), nil
}
