// Package artifact writes rendered cells to disk: the file naming policy,
// output resizing, and the background saver.
package artifact

import (
	"image"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
)

// CleanSegment turns an axis value into a safe path segment.
func CleanSegment(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '.':
			return unicode.ToLower(r)
		}
		return '_'
	}, strings.TrimSpace(s))
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "_"
	}
	return cleaned
}

// CellPath returns where the cell identified by keys is written: one
// directory per key, the last key naming the file.
func CellPath(dir string, keys []string, format string) string {
	if len(keys) == 0 {
		return filepath.Join(dir, "_."+format)
	}
	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, dir)
	for _, k := range keys[:len(keys)-1] {
		parts = append(parts, CleanSegment(k))
	}
	parts = append(parts, CleanSegment(keys[len(keys)-1])+"."+format)
	return filepath.Join(parts...)
}

// Resize scales img to exactly width x height.
func Resize(img image.Image, width, height int) image.Image {
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
