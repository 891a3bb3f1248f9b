package events

// AuthorAdded is emitted after an author was appended to the store.
type AuthorAdded struct {
	ID   int
	Name string
}

// BookAdded is emitted after a book was appended to the store.
type BookAdded struct {
	ID       int
	Name     string
	AuthorID int
}

// AuthorRenamed is emitted after an author's name was overwritten.
type AuthorRenamed struct {
	ID      int
	OldName string
	NewName string
}
