package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docflow/internal/util"
)

// Filesystem stores blobs under a root directory, sharded by content hash so
// re-uploading the same file is idempotent. The handle is the relative path.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) *Filesystem {
	return &Filesystem{root: root}
}

func (f *Filesystem) Put(_ context.Context, name string, data []byte) (string, error) {
	sum := util.SHA256Hex(data)
	ext := strings.ToLower(filepath.Ext(name))
	handle := filepath.Join(sum[:2], sum+ext)
	path := filepath.Join(f.root, handle)
	if _, err := os.Stat(path); err == nil {
		return handle, nil
	}
	if err := util.WriteBytesAtomic(path, data); err != nil {
		return "", fmt.Errorf("store blob %s: %w", name, err)
	}
	return handle, nil
}

func (f *Filesystem) Get(_ context.Context, handle string) ([]byte, error) {
	if strings.Contains(handle, "..") {
		return nil, fmt.Errorf("invalid handle %q", handle)
	}
	data, err := os.ReadFile(filepath.Join(f.root, handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", handle, util.ErrNotFound)
		}
		return nil, fmt.Errorf("read blob %s: %w", handle, err)
	}
	return data, nil
}
