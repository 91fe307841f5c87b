package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/domain/models"
)

const fileExt = ".json"

// Store writes every quotation as a standalone JSON file named after its id.
// Files are created exclusively and never rewritten.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, errors.New("quotations dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create quotations dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// SaveQuotation writes the envelope under <id>.json.
func (s *Store) SaveQuotation(_ context.Context, envelope models.QuotationEnvelope) error {
	if envelope.Quotation == nil || envelope.Quotation.ID == "" {
		return errors.New("quotation id must not be empty")
	}
	id := envelope.Quotation.ID
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid quotation id %q", id)
	}

	raw, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quotation %s: %w", id, err)
	}

	path := filepath.Join(s.dir, id+fileExt)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", id, models.ErrQuotationExists)
		}
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(raw); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	s.logger.Debug("quotation written", zap.String("id", id), zap.String("path", path))
	return nil
}

// LoadQuotations reads every stored quotation, ordered by id. Unreadable
// files are skipped and logged.
func (s *Store) LoadQuotations(_ context.Context) ([]models.Quotation, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	quotations := make([]models.Quotation, 0, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skip unreadable quotation file", zap.String("file", name), zap.Error(err))
			continue
		}
		var envelope models.QuotationEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Quotation == nil {
			s.logger.Warn("skip malformed quotation file", zap.String("file", name), zap.Error(err))
			continue
		}
		quotations = append(quotations, *envelope.Quotation)
	}
	return quotations, nil
}
