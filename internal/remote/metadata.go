package remote

import "github.com/tphakala/tonebarrier/internal/conf"

// Metadata is the now-playing information shown for the tone.
type Metadata struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	ArtworkRef string `json:"artwork"`
}

// MetadataFromSettings returns the configured now-playing metadata.
func MetadataFromSettings(s *conf.NowPlayingSettings) Metadata {
	return Metadata{
		Title:      s.Title,
		Artist:     s.Artist,
		Album:      s.Album,
		ArtworkRef: s.Artwork,
	}
}
