// Package library holds the in-memory author and book collections and the
// lookups and mutations the GraphQL API is built on.
package library

// Author is a person who wrote one or more books.
type Author struct {
	ID   int
	Name string
}

// Book references its author by id only. The reference is not checked.
type Book struct {
	ID       int
	Name     string
	AuthorID int
}
