// Package listing holds the filter and paging arithmetic shared by every list
// endpoint. Pages are zero-indexed.
package listing

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Query selects rows of a request table.
type Query struct {
	Statuses []string
	// Teams restricts rows to these teams (case-insensitive); empty means unrestricted.
	Teams []string
	// Team selects one team (case-insensitive); empty means all allowed teams.
	Team     string
	Search   string
	Page     int
	PageSize int
}

// Page is one slice of a filtered result set.
type Page[T any] struct {
	Items     []T    `json:"data"`
	Total     int64  `json:"total"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	PageCount int    `json:"page_count"`
	Cursor    string `json:"cursor,omitempty"`
}

// NewPage builds a page, computing PageCount from total.
func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: size, PageCount: PageCount(total, size)}
}

// MapPage converts the items of a page, keeping its counters.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return Page[U]{Items: items, Total: p.Total, Page: p.Page, PageSize: p.PageSize, PageCount: p.PageCount, Cursor: p.Cursor}
}

// PageCount is ceil(total/size); zero for non-positive sizes.
func PageCount(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Offset is the index of the first row of page.
func Offset(page, size int) int {
	if page < 0 {
		page = 0
	}
	return page * size
}

// Slice returns page of items; empty when the page is past the end.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 || page < 0 {
		return []T{}
	}
	start := Offset(page, size)
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Matches reports whether any field contains term, ignoring case. An empty
// term matches everything.
func Matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Filter keeps the items for which fields(item) matches term.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if Matches(term, fields(it)...) {
			out = append(out, it)
		}
	}
	return out
}

// Fingerprint identifies the filter part of q (everything except paging).
func Fingerprint(q Query) string {
	statuses := append([]string(nil), q.Statuses...)
	sort.Strings(statuses)
	teams := make([]string, len(q.Teams))
	for i, t := range q.Teams {
		teams[i] = strings.ToLower(t)
	}
	sort.Strings(teams)
	parts := []string{
		strings.Join(statuses, ","),
		strings.Join(teams, ","),
		strings.ToLower(q.Team),
		strings.ToLower(strings.TrimSpace(q.Search)),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:8])
}

type cursor struct {
	Filter string `json:"f"`
}

// EncodeCursor returns an opaque token naming the filter of q.
func EncodeCursor(q Query) string {
	b, _ := json.Marshal(cursor{Filter: Fingerprint(q)})
	return base64.RawURLEncoding.EncodeToString(b)
}

// ResolvePage returns the page a request should read. A cursor issued for the
// same filter keeps the requested page; one issued for another filter, or an
// unreadable one, resets to 0.
func ResolvePage(q Query, token string, page int) int {
	if page < 0 {
		page = 0
	}
	if token == "" {
		return page
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return 0
	}
	if c.Filter != Fingerprint(q) {
		return 0
	}
	return page
}
