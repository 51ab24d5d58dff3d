package camera

import (
	"bytes"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Normalize decodes a frame, applies its EXIF orientation, fits it within
// maxSide x maxSide and re-encodes it as PNG. maxSide <= 0 keeps the size.
func Normalize(f Frame, maxSide int) (Frame, error) {
	if len(f.Data) == 0 {
		return Frame{}, fmt.Errorf("empty frame")
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}

	if maxSide > 0 {
		b := img.Bounds()
		if b.Dx() > maxSide || b.Dy() > maxSide {
			img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Frame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	return Frame{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}
