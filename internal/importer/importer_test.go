package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/classifications"
	"github.com/mrlokans/librarian/internal/database/publishers"
	"github.com/mrlokans/librarian/internal/database/testutil"
	"github.com/mrlokans/librarian/internal/entities"
)

type stubSearcher struct {
	books []GutendexBook
	err   error
	terms []string
}

func (s *stubSearcher) Search(_ context.Context, term string) ([]GutendexBook, error) {
	s.terms = append(s.terms, term)
	return s.books, s.err
}

type fixture struct {
	db       *gorm.DB
	importer *Importer
	books    *books.Repository
	authors  *authors.Repository
}

func newFixture(t *testing.T, source Searcher) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:      db,
		books:   books.NewRepository(db),
		authors: authors.NewRepository(db),
	}
	f.importer = New(source, f.books, f.authors, publishers.NewRepository(db), classifications.NewRepository(db), nil)
	f.importer.now = func() time.Time { return time.Date(2024, 5, 17, 15, 30, 0, 0, time.UTC) }
	return f
}

func person(name string) GutendexPerson {
	return GutendexPerson{Name: name}
}

func TestImport_CreatesBooksAuthorsAndDefaults(t *testing.T) {
	source := &stubSearcher{books: []GutendexBook{
		{ID: 1, Title: "Pride and Prejudice", Authors: []GutendexPerson{person("Austen, Jane")}},
		{ID: 2, Title: "Emma", Authors: []GutendexPerson{person("Austen, Jane")}},
		{ID: 3, Title: "Beowulf", Authors: nil},
	}}
	f := newFixture(t, source)

	result, err := f.importer.Import(context.Background(), "austen", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"austen"}, source.terms)
	assert.Equal(t, 3, result.BooksCreated)
	assert.Equal(t, 1, result.AuthorsCreated)
	assert.Empty(t, result.Skipped)

	list, err := f.books.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, b := range list {
		assert.Equal(t, DefaultPublisherName, b.Publisher.Name)
		assert.Equal(t, "https://www.gutenberg.org", b.Publisher.Website)
		assert.Equal(t, DefaultClassificationCode, b.Classification.Code)
		assert.Equal(t, "Gutenberg Collection", b.Classification.Name)
		assert.Equal(t, "2024-05-17", b.PublicationDateString())
	}
	assert.Equal(t, "Jane Austen", list[0].AuthorNames())
	assert.Equal(t, "Jane Austen", list[1].AuthorNames())
	assert.Empty(t, list[2].Authors)

	jane, err := f.authors.Filter("Jane")
	require.NoError(t, err)
	require.Len(t, jane, 1)
	assert.Equal(t, "jane@gutenberg.org", jane[0].Email)
}

func TestImport_SkipsExistingTitlesAndReusesDefaults(t *testing.T) {
	source := &stubSearcher{books: []GutendexBook{
		{Title: "Dracula", Authors: []GutendexPerson{person("Stoker, Bram")}},
	}}
	f := newFixture(t, source)

	_, err := f.importer.Import(context.Background(), "", 0)
	require.NoError(t, err)

	result, err := f.importer.Import(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.BooksCreated)
	assert.Equal(t, 0, result.AuthorsCreated)
	assert.Equal(t, []string{"Dracula"}, result.Skipped)

	var publisherCount, classificationCount int64
	require.NoError(t, f.db.Model(&entities.Publisher{}).Count(&publisherCount).Error)
	require.NoError(t, f.db.Model(&entities.Classification{}).Count(&classificationCount).Error)
	assert.Equal(t, int64(1), publisherCount)
	assert.Equal(t, int64(1), classificationCount)
}

func TestImport_RespectsLimit(t *testing.T) {
	source := &stubSearcher{books: []GutendexBook{{Title: "A"}, {Title: "B"}, {Title: "C"}}}
	f := newFixture(t, source)

	result, err := f.importer.Import(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksCreated)
	assert.Equal(t, []string{"A", "B"}, result.Imported)
}

func TestImport_TruncatesTitleAndNames(t *testing.T) {
	longTitle := strings.Repeat("t", 150)
	longFirst := strings.Repeat("F", 35)
	longLast := strings.Repeat("L", 45)
	source := &stubSearcher{books: []GutendexBook{
		{Title: longTitle, Authors: []GutendexPerson{person(longLast + ", " + longFirst)}},
	}}
	f := newFixture(t, source)

	_, err := f.importer.Import(context.Background(), "", 1)
	require.NoError(t, err)

	list, err := f.books.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, strings.Repeat("t", 100), list[0].Title)
	require.Len(t, list[0].Authors, 1)
	assert.Equal(t, strings.Repeat("F", 30), list[0].Authors[0].FirstName)
	assert.Equal(t, strings.Repeat("L", 40), list[0].Authors[0].LastName)
}

func TestImport_NoResults(t *testing.T) {
	f := newFixture(t, &stubSearcher{})

	result, err := f.importer.Import(context.Background(), "zzz", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, result.BooksCreated)

	var publisherCount int64
	require.NoError(t, f.db.Model(&entities.Publisher{}).Count(&publisherCount).Error)
	assert.Equal(t, int64(0), publisherCount)
}

func TestImport_SourceError(t *testing.T) {
	f := newFixture(t, &stubSearcher{err: errors.New("connection refused")})

	_, err := f.importer.Import(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// flakyAuthors fails GetOrCreate for one last name.
type flakyAuthors struct {
	*authors.Repository
	failLastName string
}

func (a *flakyAuthors) GetOrCreate(firstName, lastName string, defaults entities.Author) (*entities.Author, bool, error) {
	if lastName == a.failLastName {
		return nil, false, errors.New("disk I/O error")
	}
	return a.Repository.GetOrCreate(firstName, lastName, defaults)
}

func TestImport_AuthorFailureLeavesNoPartialBook(t *testing.T) {
	source := &stubSearcher{books: []GutendexBook{
		{ID: 1, Title: "Good Omens", Authors: []GutendexPerson{person("Pratchett, Terry"), person("Gaiman, Neil")}},
	}}
	f := newFixture(t, source)
	flaky := &flakyAuthors{Repository: f.authors, failLastName: "Gaiman"}
	f.importer.authors = flaky

	_, err := f.importer.Import(context.Background(), "omens", 5)
	require.Error(t, err)

	count, err := f.books.Count()
	require.NoError(t, err)
	assert.Zero(t, count, "no book without its authors")

	flaky.failLastName = ""
	result, err := f.importer.Import(context.Background(), "omens", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Good Omens"}, result.Imported)
	assert.Empty(t, result.Skipped)

	list, err := f.books.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Authors, 2)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		wantFirst string
		wantLast  string
	}{
		{"Austen, Jane", "Jane", "Austen"},
		{"Shelley, Mary Wollstonecraft", "Mary Wollstonecraft", "Shelley"},
		{"Mark Twain", "Mark", "Twain"},
		{"Homer", "Homer", ""},
		{"Jean Paul Sartre", "Jean", "Paul Sartre"},
		{"", "Unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitName(tt.name)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestDefaultEmail(t *testing.T) {
	assert.Equal(t, "mary wollstonecraft@gutenberg.org", DefaultEmail("Mary Wollstonecraft"))
	assert.Equal(t, 254, len([]rune(DefaultEmail(strings.Repeat("x", 300)))))
}
