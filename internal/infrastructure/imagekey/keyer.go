// Package imagekey derives cache keys for images.
package imagekey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

const (
	StrategyContent = "sha256"
	StrategyLegacy  = "name_size"
)

// ContentKeyer keys images by the SHA-256 of their bytes.
type ContentKeyer struct{}

func (ContentKeyer) Key(image domain.Image) string {
	sum := sha256.Sum256(image.Data)
	return hex.EncodeToString(sum[:])
}

// LegacyKeyer keys images by "<name>_<size>". Two different images with the same
// name and size collide.
type LegacyKeyer struct{}

func (LegacyKeyer) Key(image domain.Image) string {
	size := image.Size
	if size <= 0 {
		size = int64(len(image.Data))
	}
	return fmt.Sprintf("%s_%d", image.Name, size)
}

type Keyer interface {
	Key(image domain.Image) string
}

// New returns the keyer for strategy. An empty strategy selects content hashing.
func New(strategy string) (Keyer, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyContent:
		return ContentKeyer{}, nil
	case StrategyLegacy:
		return LegacyKeyer{}, nil
	default:
		return nil, fmt.Errorf("unknown image key strategy %q", strategy)
	}
}
