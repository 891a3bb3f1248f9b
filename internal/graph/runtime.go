package graph

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hanpama/booksgraph/internal/eventbus"
	"github.com/hanpama/booksgraph/internal/events"
	"github.com/hanpama/booksgraph/internal/executor"
	"github.com/hanpama/booksgraph/internal/library"
	"github.com/hanpama/booksgraph/internal/logging"
)

// fieldKey identifies a field as (object type, field name).
type fieldKey [2]string

func (k fieldKey) String() string { return k[0] + "." + k[1] }

type syncResolver func(ctx context.Context, source any, args map[string]any) (any, error)

type batchResolver func(ctx context.Context, sources []any) []executor.AsyncResolveResult

// Runtime implements executor.Runtime over a Library. Root fields and
// scalar fields resolve synchronously; Book.author and Author.books resolve
// one whole execution depth per call.
type Runtime struct {
	lib    Library
	logger *zap.Logger

	sync  map[fieldKey]syncResolver
	batch map[fieldKey]batchResolver
}

var _ executor.Runtime = (*Runtime)(nil)

// NewRuntime creates a runtime over lib. A nil logger disables logging.
func NewRuntime(lib Library, logger *zap.Logger) *Runtime {
	r := &Runtime{lib: lib, logger: logging.Named(logger, "graph")}
	r.sync = map[fieldKey]syncResolver{
		{"Query", "book"}:            r.queryBook,
		{"Query", "author"}:          r.queryAuthor,
		{"Query", "books"}:           r.queryBooks,
		{"Query", "authors"}:         r.queryAuthors,
		{"Mutation", "addBook"}:      r.addBook,
		{"Mutation", "addAuthor"}:    r.addAuthor,
		{"Mutation", "updateAuthor"}: r.updateAuthor,
		{"Book", "id"}:               bookField(func(b library.Book) any { return b.ID }),
		{"Book", "name"}:             bookField(func(b library.Book) any { return b.Name }),
		{"Book", "authorId"}:         bookField(func(b library.Book) any { return b.AuthorID }),
		{"Book", "author"}:           r.bookAuthor,
		{"Author", "id"}:             authorField(func(a library.Author) any { return a.ID }),
		{"Author", "name"}:           authorField(func(a library.Author) any { return a.Name }),
		{"Author", "books"}:          r.authorBooks,
	}
	r.batch = map[fieldKey]batchResolver{
		{"Book", "author"}:  r.batchBookAuthor,
		{"Author", "books"}: r.batchAuthorBooks,
	}
	return r
}

// ResolveSync implements executor.Runtime.
func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	key := fieldKey{objectType, field}
	resolve, ok := r.sync[key]
	if !ok {
		return nil, fmt.Errorf("graph: no resolver for %s", key)
	}
	return resolve(ctx, source, args)
}

// BatchResolveAsync implements executor.Runtime. Tasks are grouped by field
// and each group is resolved with a single store call. Fields without a
// batch resolver fall back to their synchronous resolver per task.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))

	var order []fieldKey
	groups := map[fieldKey][]int{}
	for i, t := range tasks {
		key := fieldKey{t.ObjectType, t.Field}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		idx := groups[key]
		start := time.Now()

		if resolve, ok := r.batch[key]; ok {
			sources := make([]any, len(idx))
			for j, i := range idx {
				sources[j] = tasks[i].Source
			}
			for j, res := range resolve(ctx, sources) {
				results[idx[j]] = res
			}
		} else {
			for _, i := range idx {
				v, err := r.ResolveSync(ctx, key[0], key[1], tasks[i].Source, tasks[i].Args)
				results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			}
		}

		elapsed := time.Since(start)
		logging.MakeDebug(r.logger, "Resolved batch",
			zap.String("field", key.String()),
			zap.Int("size", len(idx)),
			zap.Duration("duration", elapsed))
		eventbus.Publish(ctx, events.BatchResolve{
			TypeName:  key[0],
			FieldName: key[1],
			Size:      len(idx),
			Duration:  elapsed,
		})
	}
	return results
}

// ResolveType implements executor.Runtime. The service schema declares no
// interfaces or unions.
func (r *Runtime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	return "", fmt.Errorf("graph: cannot resolve concrete type of %s for %T", abstractType, value)
}

// SerializeLeafValue implements executor.Runtime for the built-in scalars.
func (r *Runtime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "Int":
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		}
	case "String":
		if v, ok := value.(string); ok {
			return v, nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int:
			return strconv.Itoa(v), nil
		}
	default:
		return nil, fmt.Errorf("graph: unknown leaf type %s", typeName)
	}
	return nil, fmt.Errorf("graph: cannot serialize %T as %s", value, typeName)
}

func (r *Runtime) queryBook(_ context.Context, _ any, args map[string]any) (any, error) {
	id, ok := intArg(args, "id")
	if !ok {
		return nil, nil
	}
	if b, ok := r.lib.BookByID(id); ok {
		return b, nil
	}
	return nil, nil
}

func (r *Runtime) queryAuthor(_ context.Context, _ any, args map[string]any) (any, error) {
	id, ok := intArg(args, "id")
	if !ok {
		return nil, nil
	}
	if a, ok := r.lib.AuthorByID(id); ok {
		return a, nil
	}
	return nil, nil
}

func (r *Runtime) queryBooks(context.Context, any, map[string]any) (any, error) {
	return r.lib.Books(), nil
}

func (r *Runtime) queryAuthors(context.Context, any, map[string]any) (any, error) {
	return r.lib.Authors(), nil
}

func (r *Runtime) addBook(ctx context.Context, _ any, args map[string]any) (any, error) {
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	authorID, err := requiredInt(args, "authorId")
	if err != nil {
		return nil, err
	}
	return r.lib.AddBook(ctx, name, authorID)
}

func (r *Runtime) addAuthor(ctx context.Context, _ any, args map[string]any) (any, error) {
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	return r.lib.AddAuthor(ctx, name)
}

func (r *Runtime) updateAuthor(ctx context.Context, _ any, args map[string]any) (any, error) {
	id, err := requiredInt(args, "id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	a, err := r.lib.UpdateAuthor(ctx, id, name)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Runtime) bookAuthor(_ context.Context, source any, _ map[string]any) (any, error) {
	b, err := asBook(source)
	if err != nil {
		return nil, err
	}
	if a, ok := r.lib.AuthorOf(b); ok {
		return a, nil
	}
	return nil, nil
}

func (r *Runtime) authorBooks(_ context.Context, source any, _ map[string]any) (any, error) {
	a, err := asAuthor(source)
	if err != nil {
		return nil, err
	}
	return r.lib.BooksOf(a), nil
}

func (r *Runtime) batchBookAuthor(_ context.Context, sources []any) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(sources))
	books := make([]library.Book, 0, len(sources))
	pos := make([]int, 0, len(sources))
	for i, s := range sources {
		b, err := asBook(s)
		if err != nil {
			results[i].Error = err
			continue
		}
		books = append(books, b)
		pos = append(pos, i)
	}
	for j, a := range r.lib.AuthorsOf(books) {
		if a != nil {
			results[pos[j]].Value = *a
		}
	}
	return results
}

func (r *Runtime) batchAuthorBooks(_ context.Context, sources []any) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(sources))
	authors := make([]library.Author, 0, len(sources))
	pos := make([]int, 0, len(sources))
	for i, s := range sources {
		a, err := asAuthor(s)
		if err != nil {
			results[i].Error = err
			continue
		}
		authors = append(authors, a)
		pos = append(pos, i)
	}
	for j, books := range r.lib.BooksOfAuthors(authors) {
		results[pos[j]].Value = books
	}
	return results
}

func bookField(get func(library.Book) any) syncResolver {
	return func(_ context.Context, source any, _ map[string]any) (any, error) {
		b, err := asBook(source)
		if err != nil {
			return nil, err
		}
		return get(b), nil
	}
}

func authorField(get func(library.Author) any) syncResolver {
	return func(_ context.Context, source any, _ map[string]any) (any, error) {
		a, err := asAuthor(source)
		if err != nil {
			return nil, err
		}
		return get(a), nil
	}
}

func asBook(source any) (library.Book, error) {
	switch v := source.(type) {
	case library.Book:
		return v, nil
	case *library.Book:
		if v != nil {
			return *v, nil
		}
	}
	return library.Book{}, fmt.Errorf("graph: expected Book source, got %T", source)
}

func asAuthor(source any) (library.Author, error) {
	switch v := source.(type) {
	case library.Author:
		return v, nil
	case *library.Author:
		if v != nil {
			return *v, nil
		}
	}
	return library.Author{}, fmt.Errorf("graph: expected Author source, got %T", source)
}

// intArg returns the named argument when it is present and non-null.
func intArg(args map[string]any, name string) (int, bool) {
	v, ok := args[name].(int)
	return v, ok
}

func requiredInt(args map[string]any, name string) (int, error) {
	if v, ok := intArg(args, name); ok {
		return v, nil
	}
	return 0, fmt.Errorf("graph: argument %q of type Int! is required", name)
}

func requiredString(args map[string]any, name string) (string, error) {
	if v, ok := args[name].(string); ok {
		return v, nil
	}
	return "", fmt.Errorf("graph: argument %q of type String! is required", name)
}
