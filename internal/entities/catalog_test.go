package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBook_WasPublishedRecently(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published time.Time
		want      bool
	}{
		{"today", time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), true},
		{"yesterday", time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), true},
		{"two days ago", time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC), false},
		{"thirty days ago", now.AddDate(0, 0, -30), false},
		{"tomorrow", time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), false},
		{"thirty days ahead", now.AddDate(0, 0, 30), false},
		{"late yesterday", time.Date(2024, time.March, 9, 23, 59, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := Book{PublicationDate: tt.published}
			assert.Equal(t, tt.want, book.WasPublishedRecently(now))
		})
	}
}

func TestBook_WasPublishedRecently_AcrossMonthBoundary(t *testing.T) {
	now := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

	assert.True(t, Book{PublicationDate: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)}.WasPublishedRecently(now))
	assert.False(t, Book{PublicationDate: time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)}.WasPublishedRecently(now))
}

func TestBook_AuthorNames(t *testing.T) {
	book := Book{Authors: []Author{
		{ID: 3, FirstName: "Bob", LastName: "Johnson"},
		{ID: 1, FirstName: "John", LastName: "Smith"},
		{ID: 2, FirstName: "Jane", LastName: "Doe"},
	}}

	assert.Equal(t, "John Smith, Jane Doe, Bob Johnson", book.AuthorNames())
	assert.Equal(t, uint(3), book.Authors[0].ID, "original order must be untouched")
	assert.Equal(t, "", Book{}.AuthorNames())
}

func TestAuthor_FullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", Author{FirstName: "Jane", LastName: "Doe"}.FullName())
	assert.Equal(t, "Homer", Author{FirstName: "Homer"}.FullName())
}

func TestBook_PublicationDateString(t *testing.T) {
	assert.Equal(t, "", Book{}.PublicationDateString())
	assert.Equal(t, "2020-02-01", Book{PublicationDate: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)}.PublicationDateString())
}
