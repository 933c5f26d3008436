package repository

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

	"quiz_console/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// fileDocument 会话文件内容。PublishedAt 只在 Publish 时更新，监听方据此区分广播与普通写入
type fileDocument struct {
	Values      map[string]string `json:"values"`
	PublishedAt int64             `json:"published_at"`
}

// FileStore 以 JSON 文件持久化会话，跨进程通知依赖 fsnotify 监听文件所在目录
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{path: abs}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) read() (fileDocument, error) {
	doc := fileDocument{Values: map[string]string{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode session file: %w", err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc, nil
}

// write 先写临时文件再 rename，读方不会看到半截内容
func (s *FileStore) write(doc fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) update(fn func(doc *fileDocument) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if !fn(&doc) {
		return nil
	}
	return s.write(doc)
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

func (s *FileStore) SetMany(_ context.Context, values map[string]string) error {
	return s.update(func(doc *fileDocument) bool {
		for k, v := range values {
			doc.Values[k] = v
		}
		return true
	})
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	return s.update(func(doc *fileDocument) bool {
		if _, ok := doc.Values[key]; !ok {
			return false
		}
		delete(doc.Values, key)
		return true
	})
}

func (s *FileStore) Publish(_ context.Context) error {
	return s.update(func(doc *fileDocument) bool {
		next := time.Now().UnixNano()
		if next <= doc.PublishedAt {
			next = doc.PublishedAt + 1
		}
		doc.PublishedAt = next
		return true
	})
}

func (s *FileStore) publishedAt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return 0
	}
	return doc.PublishedAt
}

// Watch 每个调用者独立一个 fsnotify watcher，同进程和其他进程的 Publish 都会送达
func (s *FileStore) Watch(ctx context.Context) (<-chan SessionEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create session watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch session dir: %w", err)
	}

	out := make(chan SessionEvent, 8)
	last := s.publishedAt()

	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				current := s.publishedAt()
				// 文件被删除视为外部清空会话
				if current == last && event.Op&fsnotify.Remove == 0 {
					continue
				}
				last = current
				select {
				case out <- SessionEvent{At: time.Now()}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.Warn("Session file watcher error", zap.Error(err), zap.String("path", s.path))
			}
		}
	}()

	return out, nil
}
