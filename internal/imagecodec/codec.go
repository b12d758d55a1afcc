// Package imagecodec encodes grid output images. PNG output carries the
// generation info in a "parameters" text chunk so the image can be read
// back by tools that understand it.
package imagecodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// InfoKey is the PNG text key the generation info is stored under.
const InfoKey = "parameters"

// Formats lists the supported output formats.
var Formats = []string{"png", "jpg", "bmp", "tiff"}

// Canonical maps a user-supplied format name to a supported one.
func Canonical(format string) (string, error) {
	switch f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), "."); f {
	case "", "png":
		return "png", nil
	case "jpg", "jpeg":
		return "jpg", nil
	case "bmp":
		return "bmp", nil
	case "tif", "tiff":
		return "tiff", nil
	default:
		return "", fmt.Errorf("unsupported image format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// Encode writes img to w in format.
func Encode(w io.Writer, img image.Image, format, info string) error {
	f, err := Canonical(format)
	if err != nil {
		return err
	}
	switch f {
	case "png":
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
		data := buf.Bytes()
		if info != "" {
			data = insertText(data, InfoKey, info)
		}
		_, err := w.Write(data)
		return err
	case "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// pngHeaderLen is the signature plus the IHDR chunk (4 len + 4 type + 13 data + 4 crc).
const pngHeaderLen = 8 + 25

// insertText adds a tEXt chunk right after IHDR.
func insertText(data []byte, key, text string) []byte {
	if len(data) < pngHeaderLen {
		return data
	}
	payload := append([]byte(key), 0)
	payload = append(payload, text...)

	chunk := make([]byte, 0, len(payload)+12)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(payload)))
	typed := append([]byte("tEXt"), payload...)
	chunk = append(chunk, typed...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(typed))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:pngHeaderLen]...)
	out = append(out, chunk...)
	return append(out, data[pngHeaderLen:]...)
}

// ReadText returns the value of a tEXt chunk from PNG data.
func ReadText(data []byte, key string) (string, bool) {
	if len(data) < 8 {
		return "", false
	}
	pos := 8
	for pos+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + n
		if end+4 > len(data) {
			return "", false
		}
		if typ == "tEXt" {
			k, v, ok := bytes.Cut(data[start:end], []byte{0})
			if ok && string(k) == key {
				return string(v), true
			}
		}
		if typ == "IEND" {
			break
		}
		pos = end + 4
	}
	return "", false
}
