package config

import "time"

const (
	// FailureSilent logs video search failures only.
	FailureSilent = "silent"
	// FailureNotify also surfaces video search failures to the user.
	FailureNotify = "notify"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.VideoSearch.BaseURL == "" {
		cfg.VideoSearch.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if cfg.VideoSearch.MaxResults == 0 {
		cfg.VideoSearch.MaxResults = 5
	}
	if cfg.VideoSearch.FailurePolicy != FailureNotify {
		cfg.VideoSearch.FailurePolicy = FailureSilent
	}
	if cfg.Speech.Command == "" {
		cfg.Speech.Command = "espeak-ng"
	}
	if cfg.Speech.Rate == 0 {
		cfg.Speech.Rate = 1.0
	}
	if cfg.Speech.Language == "" {
		cfg.Speech.Language = "en"
	}
	if cfg.Export.Title == "" {
		cfg.Export.Title = "SmartStudy AI - Study Notes"
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "/usr/local/var/smartstudy/reports"
	}
	if cfg.Export.WrapColumn == 0 {
		cfg.Export.WrapColumn = 90
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/smartstudy/data/history.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/smartstudy/data/indices/history"
	}
	if cfg.Watch.Directory == "" {
		cfg.Watch.Directory = "/usr/local/var/smartstudy/inbox"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".txt", ".md", ".docx", ".pptx", ".xlsx"}
	}
	if cfg.Watch.SummaryType == "" {
		cfg.Watch.SummaryType = "short"
	}
}
