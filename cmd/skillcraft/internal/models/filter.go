package models

import (
	"net/url"
	"strconv"
)

// ListFilter 列表接口的可选过滤条件，PageNumber 从 0 开始
type ListFilter struct {
	Name       string
	Tag        string
	PageNumber int
	PageSize   int
}

// Query 转换为查询参数，零值字段不输出
func (f ListFilter) Query() url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.PageNumber > 0 {
		q.Set("pageNumber", strconv.Itoa(f.PageNumber))
	}
	if f.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(f.PageSize))
	}
	return q
}

// IsLastPage 服务端不返回总数：返回条数少于请求的页大小即为最后一页。
// 未指定页大小时视为一次性返回全部。
func IsLastPage(got int, f ListFilter) bool {
	if f.PageSize <= 0 {
		return true
	}
	return got < f.PageSize
}
