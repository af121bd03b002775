// Package tasklist turns raw task records into the ordered, annotated list a
// view renders. It encodes filter requests for the data source, sorts records
// by a selected mode and computes derived display fields. Nothing in this
// package performs I/O or keeps state between calls.
package tasklist

import (
	"log/slog"
	"net/url"
	"strings"
)

// Query parameter names understood by the task API.
const (
	ParamStatus    = "status"
	ParamPriority  = "priority"
	ParamTag       = "tag"
	ParamQuery     = "q"
	ParamDueBefore = "due_before"
)

// FilterRequest narrows which tasks are requested from the data source.
// A blank field places no constraint on its dimension.
type FilterRequest struct {
	Status    string `json:"status,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Query     string `json:"q,omitempty"`
	DueBefore string `json:"due_before,omitempty"`
}

type filterParam struct {
	key   string
	value string
}

// params returns the defined fields in wire order.
func (f FilterRequest) params() []filterParam {
	all := []filterParam{
		{ParamStatus, f.Status},
		{ParamPriority, f.Priority},
		{ParamTag, f.Tag},
		{ParamQuery, f.Query},
		{ParamDueBefore, f.DueBefore},
	}
	out := all[:0]
	for _, p := range all {
		if p.value = strings.TrimSpace(p.value); p.value != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsEmpty reports whether no field is defined.
func (f FilterRequest) IsEmpty() bool {
	return len(f.params()) == 0
}

// Encode returns the form-encoded query string for the defined fields in the
// order status, priority, tag, q, due_before. Values are trimmed but otherwise
// passed verbatim. An empty filter encodes to "". The result carries no
// leading '?'.
func (f FilterRequest) Encode() string {
	var b strings.Builder
	for i, p := range f.params() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	qs := b.String()
	slog.Debug("filter query encoded", slog.String("query", qs))
	return qs
}

// ParseFilter decodes a query string produced by Encode (or any query string
// carrying the same keys). Unknown keys are ignored.
func ParseFilter(rawQuery string) (FilterRequest, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return FilterRequest{}, err
	}
	return FilterFromValues(values), nil
}

// FilterFromValues reads the filter keys from already parsed query values.
func FilterFromValues(values url.Values) FilterRequest {
	get := func(key string) string {
		return strings.TrimSpace(values.Get(key))
	}
	return FilterRequest{
		Status:    get(ParamStatus),
		Priority:  get(ParamPriority),
		Tag:       get(ParamTag),
		Query:     get(ParamQuery),
		DueBefore: get(ParamDueBefore),
	}
}
