package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

const maxImageBytes = 20 << 20

// ImageStoreUseCase keeps uploaded images under their cache key so they can be rescored later.
type ImageStoreUseCase struct {
	storage ports.ObjectStorage
	keyer   ports.ImageKeyer
}

func NewImageStoreUseCase(storage ports.ObjectStorage, keyer ports.ImageKeyer) *ImageStoreUseCase {
	return &ImageStoreUseCase{storage: storage, keyer: keyer}
}

func (uc *ImageStoreUseCase) Upload(ctx context.Context, image domain.Image) (string, error) {
	if len(image.Data) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload image", errors.New("no file provided"))
	}
	if len(image.Data) > maxImageBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload image", fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}

	key := uc.keyer.Key(image)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(image.Data)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return key, nil
}

func (uc *ImageStoreUseCase) Load(ctx context.Context, imageKey string) (domain.Image, error) {
	imageKey = strings.TrimSpace(imageKey)
	if imageKey == "" {
		return domain.Image{}, domain.WrapError(domain.ErrInvalidInput, "load image", errors.New("image key is required"))
	}

	rc, err := uc.storage.Open(ctx, imageKey)
	if err != nil {
		return domain.Image{}, domain.WrapError(domain.ErrImageNotFound, "load image", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxImageBytes+1))
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return domain.Image{}, domain.WrapError(domain.ErrInvalidInput, "load image", fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}
	return domain.Image{
		Name: imageKey,
		Size: int64(len(data)),
		Data: data,
	}, nil
}
