package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// 固定的存储键
const (
	KeyAuthToken = "authToken"
	KeyTheme     = "theme"
)

// Store 客户端持久化键值存储
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// FileStore 以单个 JSON 文件保存全部键值（全量写入）
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// NewFileStore 打开（或首次创建）storage.json
func NewFileStore(dir string) (*FileStore, error) {
	s := &FileStore{path: filepath.Join(dir, "storage.json"), values: map[string]string{}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path 返回存储文件路径
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // first run
		}
		return fmt.Errorf("read storage: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &s.values); err != nil {
		return fmt.Errorf("parse storage %s: %w", s.path, err)
	}
	if s.values == nil {
		// 文件内容为 null
		s.values = map[string]string{}
	}
	return nil
}

// save 调用方须持有写锁
func (s *FileStore) save() error {
	b, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	// token 属于凭据，仅当前用户可读
	return os.WriteFile(s.path, b, 0600)
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.save()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

// MemoryStore 进程内实现，用于测试与一次性会话
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
