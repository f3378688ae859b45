package helper

import (
	"bytes"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Batas wajar untuk foto selfie absensi.
const (
	maxImageBytes   = 5 * 1024 * 1024
	maxImageEdgePx  = 640
	webpQualityMark = 80
)

// ReadImageFile membaca isi file upload dengan batas ukuran.
func ReadImageFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxImageBytes {
		return nil, fmt.Errorf("ukuran gambar melebihi %dMB", maxImageBytes/(1024*1024))
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("gagal membuka file gambar: %w", err)
	}
	defer src.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(src, maxImageBytes+1)); err != nil {
		return nil, fmt.Errorf("gagal membaca file gambar: %w", err)
	}
	if buf.Len() > maxImageBytes {
		return nil, fmt.Errorf("ukuran gambar melebihi %dMB", maxImageBytes/(1024*1024))
	}
	return buf.Bytes(), nil
}

// NormalizeAttendanceImage: decode (jpeg/png/webp), resize sisi terpanjang ke 640px,
// lalu encode ulang ke WebP supaya payload ke verification gateway kecil dan seragam.
func NormalizeAttendanceImage(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		// fallback: mungkin sudah webp
		if wimg, werr := webp.Decode(bytes.NewReader(raw)); werr == nil {
			img = wimg
		} else {
			return nil, fmt.Errorf("format gambar tidak dikenali: %w", err)
		}
	}

	b := img.Bounds()
	if b.Dx() > maxImageEdgePx || b.Dy() > maxImageEdgePx {
		img = imaging.Fit(img, maxImageEdgePx, maxImageEdgePx, imaging.Lanczos)
	}

	out := new(bytes.Buffer)
	if err := webp.Encode(out, img, &webp.Options{Quality: webpQualityMark}); err != nil {
		return nil, fmt.Errorf("encode webp gagal: %w", err)
	}
	return out.Bytes(), nil
}
