// Package screenshot stores evidence files and detects re-used evidence by
// content hash. Hash rows are append-only: cleanup removes files, never
// hashes, so deleted evidence still counts as seen.
package screenshot

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/google/uuid"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"gorm.io/gorm"
)

// Policy selects how a detected duplicate is handled.
type Policy int

const (
	// Strict refuses the upload outright; nothing is written.
	Strict Policy = iota
	// Permissive records the upload and reports IsDuplicate so the caller
	// (sequencer, auditor) decides.
	Permissive
)

type Result struct {
	Hash        string
	IsDuplicate bool
	Path        string
}

type Service struct {
	dir string
}

func NewService(dir string) *Service {
	return &Service{dir: dir}
}

// HashBytes computes the dedup identity of raw evidence bytes.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Process hashes the evidence, registers the hash and writes the file.
// Must run inside the caller's transaction so a failed submission does not
// leave a hash behind for Strict callers.
func (s *Service) Process(tx *gorm.DB, raw []byte, userID string, policy Policy) (Result, error) {
	if len(raw) == 0 {
		return Result{}, types.Validation("screenshot is required")
	}
	hash := HashBytes(raw)

	duplicate, err := s.register(tx, hash, userID)
	if err != nil {
		return Result{}, err
	}
	if duplicate && policy == Strict {
		return Result{}, types.Conflict("duplicate screenshot %s", hash[:12])
	}

	path, err := s.writeFile(raw, userID)
	if err != nil {
		return Result{}, err
	}
	return Result{Hash: hash, IsDuplicate: duplicate, Path: path}, nil
}

// register inserts the hash row, reporting whether it already existed. A
// concurrent insert losing the unique-index race is the same as "existed".
func (s *Service) register(tx *gorm.DB, hash, userID string) (bool, error) {
	var count int64
	if err := tx.Model(&types.ScreenshotHash{}).Where("hash = ?", hash).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err := tx.Create(&types.ScreenshotHash{
		ID:         uuid.NewString(),
		Hash:       hash,
		UploaderID: userID,
		CreatedAt:  time.Now(),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, nil
	}
	return false, err
}

func (s *Service) writeFile(raw []byte, userID string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	h := xxhash.NewS64(0)
	_, _ = h.WriteString(userID)
	_, _ = h.WriteString(uuid.NewString())
	name := fmt.Sprintf("%016x.png", h.Sum64())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveEvidence deletes a resolved evidence file. The hash row stays.
func (s *Service) RemoveEvidence(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
