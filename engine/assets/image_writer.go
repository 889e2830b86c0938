package assets

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// FlipRGBA turns tightly packed RGBA8 rows read from OpenGL (bottom-left
// origin) into an image with a top-left origin.
func FlipRGBA(w, h int, pixels []byte) (*image.RGBA, error) {
	stride := w * 4
	if w <= 0 || h <= 0 || len(pixels) < stride*h {
		return nil, fmt.Errorf("flip rgba: %d bytes for %dx%d", len(pixels), w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := pixels[(h-1-y)*stride : (h-y)*stride]
		copy(img.Pix[y*img.Stride:y*img.Stride+stride], src)
	}
	return img, nil
}

// Encode writes img in the format named by ext (".png", ".bmp", ".tif", ".tiff").
func Encode(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}
}

// SaveRGBA flips GL pixels and writes them to path; the extension picks the encoder.
func SaveRGBA(path string, w, h int, pixels []byte) error {
	img, err := FlipRGBA(w, h, pixels)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := Encode(f, filepath.Ext(path), img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
