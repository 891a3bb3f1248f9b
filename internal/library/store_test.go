package library_test

import (
	"context"
	"errors"

	"github.com/hanpama/booksgraph/internal/library"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *library.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = library.NewStore(library.DefaultSeed())
	})

	Describe("seed", func() {
		It("holds three authors and eight books", func() {
			Expect(store.Authors()).Should(HaveLen(3))
			Expect(store.Books()).Should(HaveLen(8))
		})

		It("keeps insertion order", func() {
			names := []string{}
			for _, a := range store.Authors() {
				names = append(names, a.Name)
			}
			Expect(names).Should(Equal([]string{"J. K. Rowling", "J. R. R. Tolkien", "Brent Weeks"}))
		})
	})

	Describe("BookByID and AuthorByID", func() {
		It("returns the entity with the matching id", func() {
			book, ok := store.BookByID(4)
			Expect(ok).Should(BeTrue())
			Expect(book).Should(Equal(library.Book{ID: 4, Name: "The Fellowship of the Ring", AuthorID: 2}))

			author, ok := store.AuthorByID(3)
			Expect(ok).Should(BeTrue())
			Expect(author.Name).Should(Equal("Brent Weeks"))
		})

		It("reports absence for unknown ids", func() {
			_, ok := store.BookByID(999)
			Expect(ok).Should(BeFalse())
			_, ok = store.AuthorByID(0)
			Expect(ok).Should(BeFalse())
		})
	})

	Describe("relational lookups", func() {
		It("resolves the author of a book", func() {
			book, _ := store.BookByID(7)
			author, ok := store.AuthorOf(book)
			Expect(ok).Should(BeTrue())
			Expect(author).Should(Equal(library.Author{ID: 3, Name: "Brent Weeks"}))
		})

		It("reports absence for a dangling author reference", func() {
			_, ok := store.AuthorOf(library.Book{ID: 100, AuthorID: 42})
			Expect(ok).Should(BeFalse())
		})

		It("lists the books of an author in insertion order", func() {
			author, _ := store.AuthorByID(1)
			Expect(store.BooksOf(author)).Should(Equal([]library.Book{
				{ID: 1, Name: "Harry Potter and the Chamber of Secrets", AuthorID: 1},
				{ID: 2, Name: "Harry Potter and the Prisoner of Azkaban", AuthorID: 1},
				{ID: 3, Name: "Harry Potter and the Goblet of Fire", AuthorID: 1},
			}))
		})

		It("returns an empty, non-nil list for an author without books", func() {
			books := store.BooksOf(library.Author{ID: 77})
			Expect(books).ShouldNot(BeNil())
			Expect(books).Should(BeEmpty())
		})

		It("resolves authors positionally in one batch", func() {
			books := []library.Book{{AuthorID: 2}, {AuthorID: 99}, {AuthorID: 1}}
			authors := store.AuthorsOf(books)
			Expect(authors).Should(HaveLen(3))
			Expect(authors[0].Name).Should(Equal("J. R. R. Tolkien"))
			Expect(authors[1]).Should(BeNil())
			Expect(authors[2].Name).Should(Equal("J. K. Rowling"))
		})

		It("resolves books positionally in one batch", func() {
			lists := store.BooksOfAuthors([]library.Author{{ID: 3}, {ID: 50}, {ID: 2}})
			Expect(lists).Should(HaveLen(3))
			Expect(lists[0]).Should(HaveLen(2))
			Expect(lists[1]).ShouldNot(BeNil())
			Expect(lists[1]).Should(BeEmpty())
			Expect(lists[2][0].Name).Should(Equal("The Fellowship of the Ring"))
		})
	})

	Describe("readers", func() {
		It("receive copies", func() {
			books := store.Books()
			books[0].Name = "changed"
			authors := store.Authors()
			authors[0].Name = "changed"

			book, _ := store.BookByID(1)
			Expect(book.Name).Should(Equal("Harry Potter and the Chamber of Secrets"))
			author, _ := store.AuthorByID(1)
			Expect(author.Name).Should(Equal("J. K. Rowling"))
		})
	})

	Describe("AddBook", func() {
		It("appends exactly one book with a fresh id", func() {
			book, err := store.AddBook(ctx, "Title", 1)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(book).Should(Equal(library.Book{ID: 9, Name: "Title", AuthorID: 1}))

			books := store.Books()
			Expect(books).Should(HaveLen(9))
			Expect(books[8]).Should(Equal(book))

			author, _ := store.AuthorByID(1)
			Expect(store.BooksOf(author)).Should(ContainElement(book))
		})

		It("does not check the author reference", func() {
			book, err := store.AddBook(ctx, "Orphan", 999)
			Expect(err).ShouldNot(HaveOccurred())
			_, ok := store.AuthorOf(book)
			Expect(ok).Should(BeFalse())
		})
	})

	Describe("AddAuthor", func() {
		It("creates an author without books", func() {
			author, err := store.AddAuthor(ctx, "New Author")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(author.ID).Should(Equal(4))

			got, ok := store.AuthorByID(author.ID)
			Expect(ok).Should(BeTrue())
			Expect(got.Name).Should(Equal("New Author"))
			Expect(store.BooksOf(got)).Should(BeEmpty())
		})

		It("stores names in NFC form", func() {
			author, err := store.AddAuthor(ctx, "Rene\u0301")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(author.Name).Should(Equal("Ren\u00e9"))
		})
	})

	Describe("UpdateAuthor", func() {
		It("changes only the named author", func() {
			before := store.Authors()

			updated, err := store.UpdateAuthor(ctx, 2, "New Name")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(updated).Should(Equal(library.Author{ID: 2, Name: "New Name"}))

			after := store.Authors()
			Expect(after[0]).Should(Equal(before[0]))
			Expect(after[1].Name).Should(Equal("New Name"))
			Expect(after[2]).Should(Equal(before[2]))
		})

		It("fails with NotFound and leaves data unchanged", func() {
			before := store.Authors()

			_, err := store.UpdateAuthor(ctx, 999, "X")
			Expect(err).Should(HaveOccurred())
			Expect(errors.Is(err, library.ErrNotFound)).Should(BeTrue())
			Expect(err).Should(MatchError("couldn't find author with id 999"))

			var nf *library.NotFoundError
			Expect(errors.As(err, &nf)).Should(BeTrue())
			Expect(nf.ID).Should(Equal(999))
			Expect(nf.Extensions()).Should(Equal(map[string]any{"code": "NOT_FOUND", "id": 999}))

			Expect(store.Authors()).Should(Equal(before))
		})
	})
})
