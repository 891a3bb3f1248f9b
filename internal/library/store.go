package library

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/hanpama/booksgraph/internal/eventbus"
	"github.com/hanpama/booksgraph/internal/events"
	"github.com/hanpama/booksgraph/internal/logging"
)

// Store owns the author and book collections for the lifetime of the
// process. Collections only grow; the sole in-place change is an author's
// name. Readers always receive copies.
type Store struct {
	mu      sync.RWMutex
	authors []Author
	books   []Book

	// last allocated ids; next id is last+1
	lastAuthorID int
	lastBookID   int

	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by mutations. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store holding a copy of seed. Id counters start past
// the highest seeded id of each collection.
func NewStore(seed Seed, opts ...Option) *Store {
	s := &Store{
		authors: make([]Author, 0, len(seed.Authors)),
		books:   make([]Book, 0, len(seed.Books)),
	}
	for _, a := range seed.Authors {
		a.Name = normalize(a.Name)
		s.authors = append(s.authors, a)
		s.lastAuthorID = max(s.lastAuthorID, a.ID)
	}
	for _, b := range seed.Books {
		b.Name = normalize(b.Name)
		s.books = append(s.books, b)
		s.lastBookID = max(s.lastBookID, b.ID)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalize(name string) string { return norm.NFC.String(name) }

// AuthorOf returns the author referenced by book.AuthorID.
func (s *Store) AuthorOf(book Book) (Author, bool) {
	return s.AuthorByID(book.AuthorID)
}

// BooksOf returns the books written by author in insertion order. The result
// is never nil.
func (s *Store) BooksOf(author Author) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.booksOf(author.ID)
}

func (s *Store) booksOf(authorID int) []Book {
	return lo.Filter(s.books, func(b Book, _ int) bool { return b.AuthorID == authorID })
}

// AuthorsOf resolves AuthorOf for every book in one pass. result[i] is nil
// when books[i] references no author.
func (s *Store) AuthorsOf(books []Book) []*Author {
	s.mu.RLock()
	byID := lo.KeyBy(s.authors, func(a Author) int { return a.ID })
	s.mu.RUnlock()

	return lo.Map(books, func(b Book, _ int) *Author {
		a, ok := byID[b.AuthorID]
		if !ok {
			return nil
		}
		return &a
	})
}

// BooksOfAuthors resolves BooksOf for every author in one pass. Each inner
// slice is in insertion order and never nil.
func (s *Store) BooksOfAuthors(authors []Author) [][]Book {
	s.mu.RLock()
	byAuthor := lo.GroupBy(s.books, func(b Book) int { return b.AuthorID })
	s.mu.RUnlock()

	return lo.Map(authors, func(a Author, _ int) []Book {
		if books, ok := byAuthor[a.ID]; ok {
			return books
		}
		return []Book{}
	})
}

// BookByID returns the book with the given id.
func (s *Store) BookByID(id int) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.books, func(b Book) bool { return b.ID == id })
}

// AuthorByID returns the author with the given id.
func (s *Store) AuthorByID(id int) (Author, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.authors, func(a Author) bool { return a.ID == id })
}

// Books returns all books in insertion order.
func (s *Store) Books() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books)
}

// Authors returns all authors in insertion order.
func (s *Store) Authors() []Author {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.authors)
}

// AddBook appends a new book. authorID is stored as given.
func (s *Store) AddBook(ctx context.Context, name string, authorID int) (Book, error) {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID().String()
	span.SetAttributes(attribute.Int("author_id", authorID))

	s.mu.Lock()
	s.lastBookID++
	book := Book{ID: s.lastBookID, Name: normalize(name), AuthorID: authorID}
	s.books = append(s.books, book)
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("book_id", book.ID))
	logging.MakeInfo(s.logger, "Added the book",
		zap.String("trace_id", traceID),
		zap.Int("book_id", book.ID),
		zap.String("book_name", book.Name),
		zap.Int("author_id", authorID),
		zap.String("action", ActionAddBook))
	eventbus.Publish(ctx, events.BookAdded{ID: book.ID, Name: book.Name, AuthorID: book.AuthorID})
	return book, nil
}

// AddAuthor appends a new author.
func (s *Store) AddAuthor(ctx context.Context, name string) (Author, error) {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID().String()

	s.mu.Lock()
	s.lastAuthorID++
	author := Author{ID: s.lastAuthorID, Name: normalize(name)}
	s.authors = append(s.authors, author)
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("author_id", author.ID))
	logging.MakeInfo(s.logger, "Registered the author",
		zap.String("trace_id", traceID),
		zap.Int("author_id", author.ID),
		zap.String("author_name", author.Name),
		zap.String("action", ActionAddAuthor))
	eventbus.Publish(ctx, events.AuthorAdded{ID: author.ID, Name: author.Name})
	return author, nil
}

// UpdateAuthor overwrites the name of the author with the given id and
// returns the updated author. It fails with a *NotFoundError when no such
// author exists, leaving the store unchanged.
func (s *Store) UpdateAuthor(ctx context.Context, id int, name string) (Author, error) {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID().String()
	span.SetAttributes(attribute.Int("author_id", id))

	name = normalize(name)
	s.mu.Lock()
	i := slices.IndexFunc(s.authors, func(a Author) bool { return a.ID == id })
	var old, updated Author
	if i >= 0 {
		old = s.authors[i]
		s.authors[i].Name = name
		updated = s.authors[i]
	}
	s.mu.Unlock()

	if i < 0 {
		err := &NotFoundError{Kind: "author", ID: id}
		logging.CheckError(err, s.logger, "Failed changing author",
			zap.String("trace_id", traceID),
			zap.Int("author_id", id),
			zap.String("author_name", name),
			zap.String("action", ActionUpdateAuthor))
		span.RecordError(err)
		return Author{}, err
	}

	logging.MakeInfo(s.logger, "Changed the author",
		zap.String("trace_id", traceID),
		zap.Int("author_id", id),
		zap.String("author_name", name),
		zap.String("action", ActionUpdateAuthor))
	eventbus.Publish(ctx, events.AuthorRenamed{ID: id, OldName: old.Name, NewName: updated.Name})
	return updated, nil
}

// Log "action" values.
const (
	ActionAddBook      = "AddBook"
	ActionAddAuthor    = "AddAuthor"
	ActionUpdateAuthor = "UpdateAuthor"
)
