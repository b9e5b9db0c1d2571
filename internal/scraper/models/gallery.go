package models

// ImageRef is a raw (src, link target) pair collected from the modal before
// the gallery is assembled.
type ImageRef struct {
	URL  string
	Href string
}

// BuildGallery assembles the ordered image gallery from the main image and
// the media-tab thumbnails. Entries without a URL are skipped, duplicate
// URLs keep their first occurrence, the main image is always position 0.
func BuildGallery(main ImageRef, thumbs []ImageRef) []GalleryImage {
	var gallery []GalleryImage
	seen := make(map[string]bool)

	if main.URL != "" {
		href := main.Href
		if href == "" {
			href = main.URL
		}
		gallery = append(gallery, GalleryImage{URL: main.URL, Href: href, IsMain: true, Position: 0})
		seen[main.URL] = true
	}

	// Position 0 stays reserved for the main image even when it is absent.
	position := 1
	for _, thumb := range thumbs {
		if thumb.URL == "" || seen[thumb.URL] {
			continue
		}
		seen[thumb.URL] = true
		href := thumb.Href
		if href == "" {
			href = thumb.URL
		}
		gallery = append(gallery, GalleryImage{URL: thumb.URL, Href: href, Position: position})
		position++
	}

	return gallery
}
