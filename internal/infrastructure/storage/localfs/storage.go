package localfs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

const maxCorpusLine = 4 << 20

// Storage reads corpus files below a base directory.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data"
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat corpus dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus dir %q is not a directory", basePath)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path := filepath.Join(s.basePath, filepath.Clean("/"+key))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// LoadCorpus decodes a JSON array, YAML sequence or JSON Lines file into a corpus.
// The format follows the file extension: .jsonl is line delimited, anything else
// goes through the YAML decoder.
func (s *Storage) LoadCorpus(ctx context.Context, key string) (*domain.Corpus, error) {
	f, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []domain.PassageRecord
	if strings.EqualFold(filepath.Ext(key), ".jsonl") {
		records, err = decodeLines(f)
	} else {
		records, err = decodeDocument(f)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load corpus "+key, err)
	}
	if err := validateRecords(records); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load corpus "+key, err)
	}
	return domain.NewCorpus(records), nil
}

func decodeDocument(r io.Reader) ([]domain.PassageRecord, error) {
	var records []domain.PassageRecord
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func decodeLines(r io.Reader) ([]domain.PassageRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCorpusLine)

	var records []domain.PassageRecord
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec domain.PassageRecord
		if err := yaml.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return records, nil
}

func validateRecords(records []domain.PassageRecord) error {
	for i, rec := range records {
		if strings.TrimSpace(rec.Text) == "" {
			return fmt.Errorf("passage %d has empty text", i)
		}
	}
	return nil
}
