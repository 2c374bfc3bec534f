package vk

import (
	"fmt"
	"strconv"

	"github.com/mmcdole/reel/internal/domain"
)

// MapVideo converts an API video to a domain record
func MapVideo(v Video) domain.Record {
	return domain.Record{
		ID:           fmt.Sprintf("%d_%d", v.OwnerID, v.ID),
		Title:        v.Title,
		Duration:     uint(max(v.Duration, 0)),
		ThumbnailURL: v.Photo320,
		Variants:     MapFiles(v.Files),
	}
}

// MapFiles lists every quality, available or not, lowest first
func MapFiles(f Files) []domain.Variant {
	return []domain.Variant{
		{Quality: domain.Quality240, URL: f.MP4240},
		{Quality: domain.Quality360, URL: f.MP4360},
		{Quality: domain.Quality480, URL: f.MP4480},
		{Quality: domain.Quality720, URL: f.MP4720},
		{Quality: domain.Quality1080, URL: f.MP41080},
		{Quality: domain.QualityHLS, URL: f.HLS},
	}
}

// MapPage converts a search response fetched at offset to a page. The
// cursor is the next offset, empty once the server has nothing more.
func MapPage(resp SearchResponse, offset int) domain.Page {
	records := make([]domain.Record, 0, len(resp.Items))
	for _, v := range resp.Items {
		records = append(records, MapVideo(v))
	}

	page := domain.Page{Records: records}
	next := offset + len(resp.Items)
	if len(resp.Items) > 0 && next < resp.Count {
		page.Next = domain.Cursor(strconv.Itoa(next))
	}
	return page
}

// parseCursor turns a cursor back into an offset
func parseCursor(c domain.Cursor) (int, error) {
	if c == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(string(c))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid cursor %q", c)
	}
	return n, nil
}
