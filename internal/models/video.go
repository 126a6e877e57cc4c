package models

// Video is one entry returned by the video search provider.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// WatchURL returns the public watch page for the video.
func (v Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Voice is a speech voice offered by the host platform.
type Voice struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Default  bool   `json:"default,omitempty"`
}
