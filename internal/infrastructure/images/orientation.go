package images

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation reads the EXIF orientation of an encoded image. It returns 0
// when the tag is absent or outside 1..8.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 0
	}
	return v
}

// CorrectOrientation undoes the camera orientation so the image displays
// upright. Rotations here are clockwise; imaging rotates counter-clockwise.
func CorrectOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	if orientation >= 5 {
		img = imaging.FlipH(imaging.Rotate270(img))
	}
	switch orientation {
	case 3, 4, 7, 8:
		img = imaging.Rotate180(img)
	}
	if orientation%2 == 0 {
		img = imaging.FlipH(img)
	}
	return img
}
