// Package receipts stores expense receipt files in object storage.
package receipts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxSize bounds an uploaded receipt.
const MaxSize = 10 << 20

var ErrNotFound = errors.New("receipt not found")

// Object is a stored receipt. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Storage is implemented by Minio and Memory.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// Key builds the object key of a receipt: receipts/<user>/<expense>/<unique><ext>.
func Key(userID, expenseID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 8 {
		ext = ""
	}
	return fmt.Sprintf("receipts/%s/%s/%s%s", userID, expenseID, uuid.NewString(), ext)
}

type memObject struct {
	data        []byte
	contentType string
	storedAt    time.Time
}

// Memory keeps receipts in process. Used when no object store is configured
// and in tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func (m *Memory) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxSize+1))
	if err != nil {
		return err
	}
	if len(data) > MaxSize {
		return fmt.Errorf("receipt exceeds %d bytes", MaxSize)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("receipt size mismatch: got %d bytes, expected %d", len(data), size)
	}
	m.mu.Lock()
	m.objects[key] = memObject{data: data, contentType: contentType, storedAt: time.Now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	o, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(o.data)),
		Size:        int64(len(o.data)),
		ContentType: o.contentType,
	}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}
