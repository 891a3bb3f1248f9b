package executor

import (
	"errors"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	language "github.com/hanpama/booksgraph/internal/language"
)

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// Location is a 1-based position in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ExecutionResult represents the result of executing a GraphQL query.
// Encoded as JSON, objects keep the order of the selection set.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`

	fieldOrder map[string][]string
}

// MarshalJSON implements json.Marshaler.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)
	r.WriteJSON(stream)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// WriteJSON writes r to stream, honouring the stream's indentation.
func (r *ExecutionResult) WriteJSON(stream *jsoniter.Stream) {
	stream.WriteObjectStart()
	stream.WriteObjectField("data")
	r.writeValue(stream, "", r.Data)
	if len(r.Errors) > 0 {
		stream.WriteMore()
		stream.WriteObjectField("errors")
		stream.WriteVal(r.Errors)
	}
	stream.WriteObjectEnd()
}

func (r *ExecutionResult) writeValue(stream *jsoniter.Stream, path string, v any) {
	switch v := v.(type) {
	case map[string]any:
		if len(v) == 0 {
			stream.WriteEmptyObject()
			return
		}
		stream.WriteObjectStart()
		for i, key := range r.keysOf(path, v) {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(key)
			child := key
			if path != "" {
				child = path + "." + key
			}
			r.writeValue(stream, child, v[key])
		}
		stream.WriteObjectEnd()
	case []any:
		if len(v) == 0 {
			stream.WriteEmptyArray()
			return
		}
		stream.WriteArrayStart()
		for i, item := range v {
			if i > 0 {
				stream.WriteMore()
			}
			r.writeValue(stream, path+"["+strconv.Itoa(i)+"]", item)
		}
		stream.WriteArrayEnd()
	default:
		stream.WriteVal(v)
	}
}

// keysOf returns the keys of obj in selection order, followed by any keys
// the selection does not name in sorted order.
func (r *ExecutionResult) keysOf(path string, obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	seen := make(map[string]struct{}, len(obj))
	for _, name := range r.fieldOrder[path] {
		if _, ok := obj[name]; ok {
			if _, dup := seen[name]; !dup {
				keys = append(keys, name)
				seen[name] = struct{}{}
			}
		}
	}
	if len(keys) == len(obj) {
		return keys
	}
	rest := make([]string, 0, len(obj)-len(keys))
	for name := range obj {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// ErrorResult builds a result for a request that could not be executed.
func ErrorResult(errs ...GraphQLError) *ExecutionResult {
	return &ExecutionResult{Errors: errs}
}

type extensionsError interface {
	Extensions() map[string]any
}

// FieldError converts a resolver error into a located GraphQL error.
func FieldError(err error, fields []*language.Field, path Path) GraphQLError {
	ge := GraphQLError{Message: err.Error(), Locations: fieldLocations(fields), Path: path}
	var ext extensionsError
	if errors.As(err, &ext) {
		ge.Extensions = ext.Extensions()
	}
	return ge
}

// FromLanguageErrors converts parse and validation errors.
func FromLanguageErrors(list language.ErrorList) []GraphQLError {
	out := make([]GraphQLError, 0, len(list))
	for _, e := range list {
		if e == nil {
			continue
		}
		ge := GraphQLError{Message: e.Message, Extensions: e.Extensions}
		for _, l := range e.Locations {
			ge.Locations = append(ge.Locations, Location{Line: l.Line, Column: l.Column})
		}
		out = append(out, ge)
	}
	return out
}

func fieldLocations(fields []*language.Field) []Location {
	if len(fields) == 0 || fields[0].Position == nil {
		return nil
	}
	return []Location{{Line: fields[0].Position.Line, Column: fields[0].Position.Column}}
}
