// Package archive persists raw uploaded CSV files so past uploads stay
// traceable after the store is replaced.
package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

const digestLen = 12

// Writer names and stores raw upload artifacts.
type Writer struct {
	store       lead.BlobStore
	hasher      lead.Hasher
	clock       lead.Clock
	prefix      string
	contentType string
	logger      *zap.Logger
}

// NewWriter builds an archive writer. Objects are stored under prefix with
// the given content type; both fall back to CSV upload defaults.
func NewWriter(store lead.BlobStore, hasher lead.Hasher, clock lead.Clock, prefix string, contentType string, logger *zap.Logger) *Writer {
	if prefix == "" {
		prefix = "uploads"
	}
	if contentType == "" {
		contentType = "text/csv"
	}
	return &Writer{
		store:       store,
		hasher:      hasher,
		clock:       clock,
		prefix:      prefix,
		contentType: contentType,
		logger:      logger,
	}
}

// Archive stores one uploaded CSV and returns its URI. Object names embed
// the upload time and a short content digest so repeated uploads of the same
// file never collide.
func (w *Writer) Archive(ctx context.Context, data []byte) (string, error) {
	digest, err := w.hasher.Hash(data)
	if err != nil {
		return "", fmt.Errorf("hash upload: %w", err)
	}
	if len(digest) > digestLen {
		digest = digest[:digestLen]
	}

	name := fmt.Sprintf("%s/%s_%s.csv", w.prefix, w.clock.Now().UTC().Format("20060102T150405Z"), digest)
	uri, err := w.store.PutObject(ctx, name, w.contentType, data)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	w.logger.Info("upload archived",
		zap.String("uri", uri),
		zap.Int("bytes", len(data)),
	)
	return uri, nil
}
