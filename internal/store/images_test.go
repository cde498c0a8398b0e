package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-bookstore/internal/database"
)

func TestRebaseImageURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"windows path", `covers\2024\hoa-vang.jpg`, "", "covers/2024/hoa-vang.jpg"},
		{"relative with base", "covers/nha-gia-kim.jpg", "https://cdn.example.com/", "https://cdn.example.com/covers/nha-gia-kim.jpg"},
		{"leading slash", "/covers/a.jpg", "https://cdn.example.com", "https://cdn.example.com/covers/a.jpg"},
		{"absolute untouched", "https://img.example.com/a.jpg", "https://cdn.example.com", "https://img.example.com/a.jpg"},
		{"plain http untouched", "http://img.example.com/a.jpg", "https://cdn.example.com", "http://img.example.com/a.jpg"},
		{"empty", "", "https://cdn.example.com", ""},
		{"uppercase scheme untouched", "HTTPS://img.example.com/a.jpg", "https://cdn.example.com", "HTTPS://img.example.com/a.jpg"},
		{"protocol relative untouched", "//img.example.com/a.jpg", "https://cdn.example.com", "//img.example.com/a.jpg"},
		{"relative base", "img/a.jpg", "/static/", "/static/img/a.jpg"},
		{"already under relative base", "/static/img/a.jpg", "/static", "/static/img/a.jpg"},
		{"prefix is not a directory match", "/staticfiles/a.jpg", "/static", "/static/staticfiles/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RebaseImageURL(tt.raw, tt.base)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, RebaseImageURL(got, tt.base), "rebasing twice must not change the result")
		})
	}
}

func TestBookImages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	book := createTestBook(t, db, "100", 1)

	front, err := AddBookImage(ctx, db, book.ID, AddImageRequest{ImageURL: `covers\front.jpg`, IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, "covers/front.jpg", front.ImageURL)

	back, err := AddBookImage(ctx, db, book.ID, AddImageRequest{ImageURL: "covers/back.jpg", ImageType: "back", IsPrimary: true})
	require.NoError(t, err)

	images, err := ListBookImages(ctx, db, book.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, back.ID, images[0].ID, "newest primary wins")
	assert.False(t, images[1].IsPrimary)

	require.NoError(t, SetPrimaryImage(ctx, db, book.ID, front.ID))
	assert.ErrorIs(t, SetPrimaryImage(ctx, db, book.ID, 999999), database.ErrImageNotFound)

	n, err := RebaseImageURLs(ctx, db, "https://cdn.example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = RebaseImageURLs(ctx, db, "https://cdn.example.com")
	require.NoError(t, err)
	assert.Zero(t, n, "already absolute")

	detail, err := GetBookDetail(ctx, NewViewReader(db), book.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.PrimaryImage)
	assert.Equal(t, "https://cdn.example.com/covers/front.jpg", *detail.PrimaryImage)
}
