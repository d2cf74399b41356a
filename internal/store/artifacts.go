package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"job-applier/internal/config"
	"job-applier/pkg/apperr"

	"github.com/google/uuid"
)

// ArtifactStore keeps screenshots on disk, one directory per attempt.
type ArtifactStore struct {
	root string
}

func NewArtifactStore(conf *config.Config) *ArtifactStore {
	return &ArtifactStore{root: conf.StoreConfig.ArtifactsPath}
}

// Save writes data and returns the file path as the artifact reference.
func (s *ArtifactStore) Save(_ context.Context, attemptID, checkpoint string, data []byte) (string, error) {
	const op = "SaveArtifact"

	dir := filepath.Join(s.root, attemptID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaStage:   apperr.StageScreenshot,
			apperr.MetaAttempt: attemptID,
		})
	}

	name := fmt.Sprintf("%s-%s.png", sanitize(checkpoint), uuid.NewString()[:8])
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaStage:   apperr.StageScreenshot,
			apperr.MetaAttempt: attemptID,
		})
	}

	return path, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}

		return '-'
	}, s)
}
