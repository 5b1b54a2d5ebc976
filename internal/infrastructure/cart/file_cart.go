package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain/model"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
)

// FileCart appends submissions to a JSON array on disk.
type FileCart struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

var _ interfaces.CartService = (*FileCart)(nil)

func NewFileCart(path string) *FileCart {
	return &FileCart{path: path, now: time.Now}
}

func (c *FileCart) Submit(ctx context.Context, submission model.CartSubmission) (model.CartSubmission, error) {
	if err := ctx.Err(); err != nil {
		return model.CartSubmission{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC()
	submission.SubmittedAt = now
	submission.ID = fmt.Sprintf("GIFT-%s-%s", now.Format("20060102150405"), uuid.NewString()[:8])

	existing, err := c.readAll()
	if err != nil {
		return model.CartSubmission{}, err
	}
	existing = append(existing, submission)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return model.CartSubmission{}, fmt.Errorf("failed to encode submissions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return model.CartSubmission{}, fmt.Errorf("failed to create cart dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return model.CartSubmission{}, fmt.Errorf("failed to write submissions %s: %w", c.path, err)
	}
	return submission, nil
}

// List returns every submission recorded so far.
func (c *FileCart) List(_ context.Context) ([]model.CartSubmission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readAll()
}

func (c *FileCart) readAll() ([]model.CartSubmission, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read submissions %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var out []model.CartSubmission
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submissions %s: %w", c.path, err)
	}
	return out, nil
}
