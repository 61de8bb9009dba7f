// Package theme 持久化明暗主题偏好。
package theme

import (
	"fmt"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/storage"
)

// Theme 主题
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Default 缺失或非法时使用
const Default = Light

// Parse 解析主题名
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// Preferences 基于 storage 的 theme 键
type Preferences struct {
	store storage.Store
}

func NewPreferences(st storage.Store) *Preferences {
	return &Preferences{store: st}
}

// Current 当前主题，缺失或非法值返回 Default
func (p *Preferences) Current() Theme {
	v, ok := p.store.Get(storage.KeyTheme)
	if !ok {
		return Default
	}
	t, err := Parse(v)
	if err != nil {
		return Default
	}
	return t
}

func (p *Preferences) Set(t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	return p.store.Set(storage.KeyTheme, string(t))
}

// Toggle 在 light / dark 之间切换并返回新主题
func (p *Preferences) Toggle() (Theme, error) {
	next := Dark
	if p.Current() == Dark {
		next = Light
	}
	return next, p.Set(next)
}
