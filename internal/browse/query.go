package browse

import (
	"net/url"
	"strconv"
	"strings"
)

// Field names a mutable FilterState field.
type Field string

const (
	FieldSource    Field = "source"
	FieldTag       Field = "tag"
	FieldExtension Field = "extension"
	FieldSearch    Field = "search"
	FieldSort      Field = "sort_by"
	FieldPage      Field = "page"
	FieldLimit     Field = "limit"
)

// Listing sources.
const (
	SourcePersonal = "personal"
	SourceGlobal   = "global"
)

// FilterState is the query-relevant state of a browsing session.
type FilterState struct {
	Source    string
	Tag       string
	Extension string
	Search    string
	Sort      string
	Page      int
	Limit     int
}

// queryKeys fixes the order fields are emitted in.
var queryKeys = []Field{FieldSource, FieldTag, FieldExtension, FieldSearch, FieldSort, FieldPage, FieldLimit}

// BuildQuery renders state as a canonical query string. Unset fields are
// omitted and the keys always appear in the same order. defaultExtension is
// used when no extension was chosen explicitly.
func BuildQuery(state FilterState, defaultExtension string) string {
	values := map[Field]string{
		FieldSource: strings.TrimSpace(state.Source),
		FieldTag:    strings.TrimSpace(state.Tag),
		FieldSearch: strings.TrimSpace(state.Search),
		FieldSort:   strings.TrimSpace(state.Sort),
	}
	if ext := strings.TrimSpace(state.Extension); ext != "" {
		values[FieldExtension] = ext
	} else {
		values[FieldExtension] = strings.TrimSpace(defaultExtension)
	}
	if state.Page >= 1 {
		values[FieldPage] = strconv.Itoa(state.Page)
	}
	if state.Limit >= 1 {
		values[FieldLimit] = strconv.Itoa(state.Limit)
	}

	var b strings.Builder
	for _, key := range queryKeys {
		value := values[key]
		if value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(string(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return b.String()
}

// PageRange lists the pages 1..numPages.
func PageRange(numPages int) []int {
	if numPages <= 0 {
		return []int{}
	}
	pages := make([]int, numPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}
