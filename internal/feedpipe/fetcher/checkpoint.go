package fetcher

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Ckpt struct {
	LastTsMillis int64
}

type Checkpoint interface {
	Load() (ckpt Ckpt, ok bool, err error)
	Save(ckpt Ckpt) error
}

type FileCheckpoint struct {
	path string
}

func NewFileCheckpoint(path string) (*FileCheckpoint, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &FileCheckpoint{path: path}, nil
}

func (c *FileCheckpoint) Load() (Ckpt, bool, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Ckpt{}, false, nil
		}
		return Ckpt{}, false, err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return Ckpt{}, false, nil
	}

	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Ckpt{}, false, err
	}
	return Ckpt{LastTsMillis: ts}, true, nil
}

func (c *FileCheckpoint) Save(ckpt Ckpt) error {
	tmp := c.path + ".tmp"
	content := strconv.FormatInt(ckpt.LastTsMillis, 10) + "\n"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
