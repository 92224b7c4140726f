package seller

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/utafrali/storefront/internal/backend"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Image upload limits.
const (
	MaxImages     = 3
	MaxImageBytes = 5 << 20
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// validateImages checks the count, media type and decoded size of each
// data URL image.
func validateImages(images []backend.ImageFile) error {
	if len(images) > MaxImages {
		return apperrors.InvalidInput(fmt.Sprintf("at most %d images are allowed", MaxImages))
	}
	for i, img := range images {
		if err := validateDataURL(img.Data); err != nil {
			name := img.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return apperrors.InvalidInput(fmt.Sprintf("image %s: %s", name, err))
		}
	}
	return nil
}

// validateDataURL accepts data:<mime>;base64,<payload>.
func validateDataURL(s string) error {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return fmt.Errorf("must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return fmt.Errorf("malformed data URL")
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return fmt.Errorf("must be base64 encoded")
	}
	if _, ok := allowedImageTypes[strings.ToLower(mime)]; !ok {
		return fmt.Errorf("unsupported type %q", mime)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return fmt.Errorf("exceeds %d MiB", MaxImageBytes>>20)
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("invalid base64 payload")
	}
	if len(decoded) > MaxImageBytes {
		return fmt.Errorf("exceeds %d MiB", MaxImageBytes>>20)
	}
	return nil
}
