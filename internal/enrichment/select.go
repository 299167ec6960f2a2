package enrichment

import (
	"net/url"
	"strings"
	"time"

	"github.com/kdimtricp/movierec/internal/search"
)

// SelectTrailer picks the trailer to show from a movie's related media.
// Only entries of type Trailer that TrailerURL can link to qualify. The most
// recently published one wins; when no publish time parses, the first
// qualifying entry is used.
func SelectTrailer(videos []search.Video) (search.Video, bool) {
	var candidates []search.Video
	for _, v := range videos {
		if strings.EqualFold(v.Type, "Trailer") && TrailerURL(v) != "" {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return search.Video{}, false
	}

	best := -1
	var bestAt time.Time
	for i, v := range candidates {
		at, ok := parsePublishedAt(v.PublishedAt)
		if !ok {
			continue
		}
		if best < 0 || at.After(bestAt) {
			best = i
			bestAt = at
		}
	}

	if best >= 0 {
		return candidates[best], true
	}
	return candidates[0], true
}

func parsePublishedAt(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TrailerURL returns a watch URL for the video, or "" for unknown sites.
func TrailerURL(v search.Video) string {
	if v.Key == "" {
		return ""
	}
	switch strings.ToLower(v.Site) {
	case "youtube":
		return "https://www.youtube.com/watch?v=" + url.QueryEscape(v.Key)
	case "vimeo":
		return "https://vimeo.com/" + url.PathEscape(v.Key)
	default:
		return ""
	}
}
