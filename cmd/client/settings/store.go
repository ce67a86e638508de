// Package settings 는 앱 설정(다크 모드, 시스템 테마 따르기)을 파일에 보관한다.
// 처음 한 번만 파일에서 읽고, 이후 변경은 메모리와 파일에 함께 반영한다.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"bankr/cmd/internal/logger"
)

type Settings struct {
	DarkMode             bool `yaml:"dark_mode" json:"darkMode"`
	UseDeviceColorScheme bool `yaml:"use_device_color_scheme" json:"useDeviceColorScheme"`
}

// Patch 는 부분 갱신 요청이다. nil 필드는 그대로 둔다.
type Patch struct {
	DarkMode             *bool `json:"darkMode"`
	UseDeviceColorScheme *bool `json:"useDeviceColorScheme"`
}

func Defaults() Settings {
	return Settings{DarkMode: true, UseDeviceColorScheme: true}
}

type Store struct {
	path string

	mu      sync.Mutex
	loaded  bool
	current Settings
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get 은 현재 설정을 반환한다. 파일이 없거나 읽을 수 없으면 기본값을 쓴다.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.current
}

// Update 는 patch 를 적용하고 파일에 쓴다. 쓰기에 실패하면 메모리 값도 바꾸지 않는다.
func (s *Store) Update(p Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	next := s.current
	if p.DarkMode != nil {
		next.DarkMode = *p.DarkMode
	}
	if p.UseDeviceColorScheme != nil {
		next.UseDeviceColorScheme = *p.UseDeviceColorScheme
	}
	if next == s.current {
		return next, nil
	}

	if err := s.write(next); err != nil {
		return s.current, err
	}
	s.current = next
	logger.InfoWithFields("settings updated", logger.Fields{
		"dark_mode":               next.DarkMode,
		"use_device_color_scheme": next.UseDeviceColorScheme,
	})
	return next, nil
}

func (s *Store) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.current = Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.WarnWithFields("settings read failed, using defaults", logger.Fields{"path": s.path, "error": err.Error()})
		}
		return
	}

	loaded := Defaults()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		logger.WarnWithFields("settings parse failed, using defaults", logger.Fields{"path": s.path, "error": err.Error()})
		return
	}
	s.current = loaded
}

// write 는 임시 파일에 쓴 뒤 rename 해서 반쯤 쓰인 파일이 남지 않게 한다.
func (s *Store) write(v Settings) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("settings marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("settings mkdir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("settings write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("settings rename: %w", err)
	}
	return nil
}
