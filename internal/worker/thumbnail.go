// Package worker implements the thumbnail consumer: it drains the Redis job
// queue and writes pre-scaled image variants next to the originals.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"

	// Decode-only formats uploads arrive in. Variants of these re-encode
	// as jpeg in encodeScaled's default branch.
	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"filedepot/internal/files"
	"filedepot/internal/queue"
	"filedepot/internal/storage"
)

// Thumbnailer consumes thumbnail jobs and generates size variants.
type Thumbnailer struct {
	queue  *queue.RedisQueue
	repo   files.FileRepository
	store  storage.Store
	logger *slog.Logger
}

// NewThumbnailer creates a thumbnail worker.
func NewThumbnailer(q *queue.RedisQueue, repo files.FileRepository, store storage.Store, logger *slog.Logger) *Thumbnailer {
	return &Thumbnailer{
		queue:  q,
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// Run consumes jobs until the context is canceled. A failed job is logged
// and dropped; the loop never stops for a bad payload.
func (t *Thumbnailer) Run(ctx context.Context) error {
	t.logger.Info("thumbnail worker started")

	for {
		job, err := t.queue.Dequeue(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			t.logger.Info("thumbnail worker stopping")
			return nil
		}
		if err != nil {
			t.logger.Error("dequeuing job", "error", err)
			continue
		}

		if err := t.Process(ctx, job); err != nil {
			t.logger.Error("processing thumbnail job",
				"file_id", job.FileID,
				"user_id", job.UserID,
				"error", err,
			)
		}
	}
}

// Process generates all size variants for one job. The file lookup is scoped
// to the job's owner, so a job forged for someone else's file resolves to
// nothing.
func (t *Thumbnailer) Process(ctx context.Context, job queue.ThumbnailJob) error {
	if job.FileID == "" {
		return errors.New("missing file id")
	}
	if job.UserID == "" {
		return errors.New("missing user id")
	}

	file, err := t.repo.FindByIDAndOwner(ctx, job.FileID, job.UserID)
	if err != nil {
		return fmt.Errorf("loading file: %w", err)
	}

	if file.Type != files.TypeImage {
		return fmt.Errorf("file %s is %q, not an image", file.ID, file.Type)
	}

	data, err := t.store.Read(file.LocalPath)
	if err != nil {
		return fmt.Errorf("reading original: %w", err)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	for _, width := range files.VariantWidths {
		out, err := encodeScaled(src, format, width)
		if err != nil {
			return fmt.Errorf("scaling to %d: %w", width, err)
		}

		key := storage.VariantKey(file.LocalPath, files.VariantLabel(width))
		if err := t.store.Save(key, out); err != nil {
			return fmt.Errorf("writing %d variant: %w", width, err)
		}
	}

	t.logger.Info("thumbnails generated",
		"file_id", file.ID,
		"widths", files.VariantWidths,
	)

	return nil
}

// encodeScaled scales src to the target width preserving aspect ratio and
// re-encodes it in its original format. Images already narrower than the
// target are written at their original size rather than upscaled.
func encodeScaled(src image.Image, format string, width int) ([]byte, error) {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, errors.New("empty image")
	}

	dst := src
	if srcW > width {
		height := srcH * width / srcW
		if height < 1 {
			height = 1
		}

		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		dst = scaled
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, dst); err != nil {
			return nil, err
		}
	default:
		// JPEG output for anything else keeps variants small for photos,
		// the overwhelmingly common case.
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
