package signal

import (
	"fmt"
	"os"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register webp decoding

	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// ExtractVisual decodes the file as an image and computes its perceptual
// hash. Decoding failures (non-image content, truncated file) return
// ErrUndecodable; the caller treats visual similarity as unknown for the
// file rather than failing the scan.
func ExtractVisual(path string) (*types.VisualHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	phash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	dhash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	return &types.VisualHash{
		PHash: phash.GetHash(),
		DHash: dhash.GetHash(),
	}, nil
}
