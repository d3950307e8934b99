package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/usecase"
)

// RequestFileAdapter reads and writes signed forward requests as JSON files
type RequestFileAdapter struct{}

// NewRequestFileAdapter creates a new request file adapter
func NewRequestFileAdapter() *RequestFileAdapter {
	return &RequestFileAdapter{}
}

// Write stores one signed request at path, creating parent directories
func (f *RequestFileAdapter) Write(ctx context.Context, path string, req *models.SignedRequest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	return nil
}

// Read loads the requests in path. A file holds one request or an array.
func (f *RequestFileAdapter) Read(ctx context.Context, path string) ([]models.SignedRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: request file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var reqs []models.SignedRequest
		if err := json.Unmarshal(data, &reqs); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
		}
		return reqs, nil
	}

	var req models.SignedRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
	}
	return []models.SignedRequest{req}, nil
}

// Ensure the adapter implements the interface
var _ usecase.RequestFiles = (*RequestFileAdapter)(nil)
