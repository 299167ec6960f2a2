package enrichment

import (
	"testing"

	"github.com/kdimtricp/movierec/internal/search"
)

func TestSelectTrailer(t *testing.T) {
	tests := []struct {
		name     string
		videos   []search.Video
		expected string
		ok       bool
	}{
		{
			name: "most recent trailer wins",
			videos: []search.Video{
				{Site: "YouTube", Key: "old", Type: "Trailer", PublishedAt: "2010-01-01T00:00:00.000Z"},
				{Site: "YouTube", Key: "new", Type: "Trailer", PublishedAt: "2021-12-09T17:00:02.000Z"},
				{Site: "YouTube", Key: "mid", Type: "Trailer", PublishedAt: "2015-06-01T00:00:00.000Z"},
			},
			expected: "new",
			ok:       true,
		},
		{
			name: "non trailers ignored",
			videos: []search.Video{
				{Site: "YouTube", Key: "teaser", Type: "Teaser", PublishedAt: "2022-01-01T00:00:00.000Z"},
				{Site: "YouTube", Key: "trailer", Type: "trailer", PublishedAt: "2001-01-01T00:00:00.000Z"},
			},
			expected: "trailer",
			ok:       true,
		},
		{
			name: "first when no timestamps",
			videos: []search.Video{
				{Site: "YouTube", Key: "first", Type: "Trailer"},
				{Site: "YouTube", Key: "second", Type: "Trailer", PublishedAt: "not a date"},
			},
			expected: "first",
			ok:       true,
		},
		{
			name: "dated entry beats undated",
			videos: []search.Video{
				{Site: "YouTube", Key: "undated", Type: "Trailer"},
				{Site: "YouTube", Key: "dated", Type: "Trailer", PublishedAt: "1999-03-30"},
			},
			expected: "dated",
			ok:       true,
		},
		{
			name: "equal timestamps keep first",
			videos: []search.Video{
				{Site: "YouTube", Key: "a", Type: "Trailer", PublishedAt: "2020-01-01T00:00:00Z"},
				{Site: "YouTube", Key: "b", Type: "Trailer", PublishedAt: "2020-01-01T00:00:00Z"},
			},
			expected: "a",
			ok:       true,
		},
		{
			name: "newest on unsupported site skipped",
			videos: []search.Video{
				{Site: "YouTube", Key: "older", Type: "Trailer", PublishedAt: "2019-01-01T00:00:00Z"},
				{Site: "Dailymotion", Key: "newer", Type: "Trailer", PublishedAt: "2023-01-01T00:00:00Z"},
			},
			expected: "older",
			ok:       true,
		},
		{
			name: "only unsupported sites",
			videos: []search.Video{
				{Site: "Dailymotion", Key: "x", Type: "Trailer", PublishedAt: "2023-01-01T00:00:00Z"},
			},
			ok: false,
		},
		{
			name: "missing key skipped",
			videos: []search.Video{
				{Site: "YouTube", Key: "", Type: "Trailer", PublishedAt: "2022-01-01T00:00:00Z"},
			},
			ok: false,
		},
		{
			name:   "empty list",
			videos: nil,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectTrailer(tt.videos)
			if ok != tt.ok {
				t.Fatalf("SelectTrailer ok = %v, expected %v", ok, tt.ok)
			}
			if ok && got.Key != tt.expected {
				t.Errorf("SelectTrailer picked %q, expected %q", got.Key, tt.expected)
			}
		})
	}
}

func TestTrailerURL(t *testing.T) {
	tests := []struct {
		video    search.Video
		expected string
	}{
		{search.Video{Site: "YouTube", Key: "vKQi3bBA1y8"}, "https://www.youtube.com/watch?v=vKQi3bBA1y8"},
		{search.Video{Site: "Vimeo", Key: "12345"}, "https://vimeo.com/12345"},
		{search.Video{Site: "Dailymotion", Key: "x"}, ""},
		{search.Video{Site: "YouTube"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.video.Site+"/"+tt.video.Key, func(t *testing.T) {
			if got := TrailerURL(tt.video); got != tt.expected {
				t.Errorf("TrailerURL = %q, expected %q", got, tt.expected)
			}
		})
	}
}
