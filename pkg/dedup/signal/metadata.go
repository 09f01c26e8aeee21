package signal

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// ExtractMetadata reads the embedded descriptive tags of a file: capture
// timestamp and pixel dimensions. Metadata is a soft signal: a container
// without EXIF data (or one goexif cannot parse) yields (nil, nil), not
// an error. Only an unreadable file is an error.
func ExtractMetadata(path string) (*types.MetadataSignature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF container, or a format goexif does not understand.
		return nil, nil
	}

	sig := &types.MetadataSignature{}

	if tm, err := x.DateTime(); err == nil {
		sig.CaptureTime = tm
	}

	if w, err := tagInt(x, exif.PixelXDimension); err == nil {
		if h, err := tagInt(x, exif.PixelYDimension); err == nil {
			sig.Width = w
			sig.Height = h
		}
	}

	if !sig.HasCaptureTime() && !sig.HasDimensions() {
		return nil, nil
	}
	return sig, nil
}

// tagInt reads a single integer tag value.
func tagInt(x *exif.Exif, name exif.FieldName) (int, error) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, err
	}
	return tag.Int(0)
}
