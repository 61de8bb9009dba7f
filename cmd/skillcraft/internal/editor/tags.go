package editor

import "strings"

// Tags 去重的有序标签列表，区分大小写
type Tags struct {
	items []string
}

// NewTags 按首次出现保留顺序
func NewTags(initial []string) *Tags {
	t := &Tags{}
	for _, v := range initial {
		t.Add(v)
	}
	return t
}

// Add 追加标签；空白或已存在时为 no-op
func (t *Tags) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || t.Has(tag) {
		return false
	}
	t.items = append(t.items, tag)
	return true
}

// Remove 按精确值移除；不存在时为 no-op
func (t *Tags) Remove(tag string) bool {
	for i, v := range t.items {
		if v == tag {
			t.items = append(t.items[:i:i], t.items[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Tags) Has(tag string) bool {
	for _, v := range t.items {
		if v == tag {
			return true
		}
	}
	return false
}

func (t *Tags) List() []string { return append([]string{}, t.items...) }

func (t *Tags) Len() int { return len(t.items) }
