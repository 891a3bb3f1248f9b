// Package graph binds the library store to the GraphQL executor: it owns
// the service SDL and implements executor.Runtime over a Library.
package graph

import (
	"context"
	_ "embed"

	"github.com/hanpama/booksgraph/internal/library"
	"github.com/hanpama/booksgraph/internal/schema"
)

//go:generate mockgen -source=graph.go -destination=mocks/library_mock.go -package=mocks

// SDL is the service schema. Book.author and Author.books are batched.
//
//go:embed schema.graphql
var SDL string

// NewSchema builds the executable schema from SDL.
func NewSchema() (*schema.Schema, error) {
	return schema.BuildFromString(SDL)
}

// Library is the store surface the runtime reads and mutates.
type Library interface {
	BookByID(id int) (library.Book, bool)
	AuthorByID(id int) (library.Author, bool)
	Books() []library.Book
	Authors() []library.Author
	AuthorOf(book library.Book) (library.Author, bool)
	BooksOf(author library.Author) []library.Book
	AuthorsOf(books []library.Book) []*library.Author
	BooksOfAuthors(authors []library.Author) [][]library.Book
	AddBook(ctx context.Context, name string, authorID int) (library.Book, error)
	AddAuthor(ctx context.Context, name string) (library.Author, error)
	UpdateAuthor(ctx context.Context, id int, name string) (library.Author, error)
}

var _ Library = (*library.Store)(nil)
