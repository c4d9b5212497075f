package service

import (
	"strings"

	"cosmiq-cli/internal/api"
)

// EpisodeDisplay holds display-ready podcast episode info.
type EpisodeDisplay struct {
	ID             string
	Name           string
	EpisodeProfile string
	SpeakerProfile string
	Status         string
	HasAudio       bool
	Created        string
}

// FormatEpisodeRow maps a raw PodcastEpisode to a display-ready struct.
func FormatEpisodeRow(e api.PodcastEpisode) EpisodeDisplay {
	status := e.JobStatus
	if status == "" && e.AudioFile != nil && *e.AudioFile != "" {
		status = "completed"
	}
	return EpisodeDisplay{
		ID:             e.ID,
		Name:           e.Name,
		EpisodeProfile: e.EpisodeProfile.Name,
		SpeakerProfile: e.SpeakerProfile.Name,
		Status:         PodcastStatusLabel(status),
		HasAudio:       e.AudioFile != nil && *e.AudioFile != "",
		Created:        e.Created,
	}
}

// PodcastStatusLabel maps a job status to a short user-facing label.
func PodcastStatusLabel(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "complete", "success", "succeeded":
		return "Completed"
	case "running", "processing", "in_progress":
		return "Processing"
	case "pending", "queued", "submitted", "new":
		return "Pending"
	case "failed", "error":
		return "Failed"
	case "":
		return "Unknown"
	default:
		return status
	}
}

// PodcastJobDone reports whether a job status is terminal.
func PodcastJobDone(status string) bool {
	switch PodcastStatusLabel(status) {
	case "Completed", "Failed":
		return true
	}
	return false
}
