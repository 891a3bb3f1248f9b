package library

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Seed is the initial content of a Store.
type Seed struct {
	Authors []Author
	Books   []Book
}

// DefaultSeed returns the built-in dataset: three authors and eight books.
func DefaultSeed() Seed {
	return Seed{
		Authors: []Author{
			{ID: 1, Name: "J. K. Rowling"},
			{ID: 2, Name: "J. R. R. Tolkien"},
			{ID: 3, Name: "Brent Weeks"},
		},
		Books: []Book{
			{ID: 1, Name: "Harry Potter and the Chamber of Secrets", AuthorID: 1},
			{ID: 2, Name: "Harry Potter and the Prisoner of Azkaban", AuthorID: 1},
			{ID: 3, Name: "Harry Potter and the Goblet of Fire", AuthorID: 1},
			{ID: 4, Name: "The Fellowship of the Ring", AuthorID: 2},
			{ID: 5, Name: "The Two Towers", AuthorID: 2},
			{ID: 6, Name: "The Return of the King", AuthorID: 2},
			{ID: 7, Name: "The Way of Shadows", AuthorID: 3},
			{ID: 8, Name: "Beyond the Shadows", AuthorID: 3},
		},
	}
}

type seedFile struct {
	Authors []seedAuthor `hcl:"author,block"`
	Books   []seedBook   `hcl:"book,block"`
}

type seedAuthor struct {
	ID   string `hcl:"id,label"`
	Name string `hcl:"name"`
}

type seedBook struct {
	ID       string `hcl:"id,label"`
	Name     string `hcl:"name"`
	AuthorID int    `hcl:"author_id"`
}

// LoadSeedFile decodes a seed from an HCL (.hcl) or HCL-JSON (.json) file:
//
//	author "1" { name = "J. K. Rowling" }
//	book "1" {
//	  name      = "Harry Potter and the Chamber of Secrets"
//	  author_id = 1
//	}
func LoadSeedFile(path string) (Seed, error) {
	var f seedFile
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return Seed{}, fmt.Errorf("%w: %s: %w", ErrInvalidSeed, path, err)
	}
	return f.seed(path)
}

// DecodeSeed is LoadSeedFile for in-memory sources. filename only selects the
// syntax (by extension) and appears in diagnostics.
func DecodeSeed(filename string, src []byte) (Seed, error) {
	var f seedFile
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return Seed{}, fmt.Errorf("%w: %s: %w", ErrInvalidSeed, filename, err)
	}
	return f.seed(filename)
}

func (f seedFile) seed(filename string) (Seed, error) {
	var s Seed
	seen := map[int]struct{}{}
	for _, a := range f.Authors {
		id, err := seedID(filename, "author", a.ID, seen)
		if err != nil {
			return Seed{}, err
		}
		s.Authors = append(s.Authors, Author{ID: id, Name: a.Name})
	}
	seen = map[int]struct{}{}
	for _, b := range f.Books {
		id, err := seedID(filename, "book", b.ID, seen)
		if err != nil {
			return Seed{}, err
		}
		s.Books = append(s.Books, Book{ID: id, Name: b.Name, AuthorID: b.AuthorID})
	}
	return s, nil
}

func seedID(filename, kind, label string, seen map[int]struct{}) (int, error) {
	id, err := strconv.Atoi(label)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s: %s id %q is not a positive integer", ErrInvalidSeed, filename, kind, label)
	}
	if _, dup := seen[id]; dup {
		return 0, fmt.Errorf("%w: %s: duplicate %s id %d", ErrInvalidSeed, filename, kind, id)
	}
	seen[id] = struct{}{}
	return id, nil
}
