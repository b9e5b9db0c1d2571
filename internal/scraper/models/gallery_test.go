package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"obamixscraper/internal/scraper/models"
)

func TestBuildGalleryDeduplicates(t *testing.T) {
	gallery := models.BuildGallery(
		models.ImageRef{URL: "https://cdn/a.jpg", Href: "https://cdn/a-full.jpg"},
		[]models.ImageRef{
			{URL: "https://cdn/a.jpg", Href: "https://cdn/a-full.jpg"},
			{URL: "https://cdn/b.jpg", Href: "https://cdn/b-full.jpg"},
		},
	)

	assert.Equal(t, []models.GalleryImage{
		{URL: "https://cdn/a.jpg", Href: "https://cdn/a-full.jpg", IsMain: true, Position: 0},
		{URL: "https://cdn/b.jpg", Href: "https://cdn/b-full.jpg", IsMain: false, Position: 1},
	}, gallery)
}

func TestBuildGalleryWithoutMainImage(t *testing.T) {
	gallery := models.BuildGallery(
		models.ImageRef{},
		[]models.ImageRef{
			{URL: "https://cdn/b.jpg"},
			{URL: "https://cdn/c.jpg"},
		},
	)

	// Position 0 stays reserved for the absent main image.
	assert.Len(t, gallery, 2)
	assert.Equal(t, 1, gallery[0].Position)
	assert.Equal(t, 2, gallery[1].Position)
	assert.False(t, gallery[0].IsMain)
	// Href falls back to the image URL itself.
	assert.Equal(t, "https://cdn/b.jpg", gallery[0].Href)
}

func TestBuildGallerySkipsEmptyURLs(t *testing.T) {
	gallery := models.BuildGallery(
		models.ImageRef{URL: "https://cdn/a.jpg"},
		[]models.ImageRef{{URL: ""}, {URL: "https://cdn/b.jpg"}},
	)

	assert.Len(t, gallery, 2)
	assert.Equal(t, "https://cdn/a.jpg", gallery[0].URL)
	assert.Equal(t, "https://cdn/b.jpg", gallery[1].URL)
}
