package api

import (
	"context"
	"net/url"
)

type GeneratePodcastRequest struct {
	EpisodeProfile string `json:"episode_profile"`
	SpeakerProfile string `json:"speaker_profile"`
	EpisodeName    string `json:"episode_name"`
	NotebookID     string `json:"notebook_id,omitempty"`
	Content        string `json:"content,omitempty"`
	BriefingSuffix string `json:"briefing_suffix,omitempty"`
}

type PodcastJob struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	EpisodeProfile string `json:"episode_profile"`
	EpisodeName    string `json:"episode_name"`
}

type PodcastJobStatus struct {
	JobID    string         `json:"job_id"`
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Result   map[string]any `json:"result,omitempty"`
	Error    string         `json:"error_message,omitempty"`
	Created  string         `json:"created,omitempty"`
	Updated  string         `json:"updated,omitempty"`
	Progress map[string]any `json:"progress,omitempty"`
}

type NamedProfile struct {
	Name string `json:"name"`
}

type PodcastEpisode struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	EpisodeProfile NamedProfile `json:"episode_profile"`
	SpeakerProfile NamedProfile `json:"speaker_profile"`
	Briefing       string       `json:"briefing"`
	AudioFile      *string      `json:"audio_file,omitempty"`
	Transcript     any          `json:"transcript,omitempty"`
	Outline        any          `json:"outline,omitempty"`
	Created        string       `json:"created,omitempty"`
	JobStatus      string       `json:"job_status,omitempty"`
}

func (c *Client) GeneratePodcast(ctx context.Context, req GeneratePodcastRequest) (*PodcastJob, error) {
	var resp PodcastJob
	if err := c.post(ctx, "/api/podcasts/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetPodcastJob(ctx context.Context, jobID string) (*PodcastJobStatus, error) {
	var resp PodcastJobStatus
	if err := c.get(ctx, recordPath("/api/podcasts/jobs", jobID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListPodcastEpisodes(ctx context.Context, notebookID string) ([]PodcastEpisode, error) {
	params := url.Values{}
	params.Set("notebook_id", notebookID)
	var resp []PodcastEpisode
	if err := c.get(ctx, withQuery("/api/podcasts/episodes", params), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetPodcastEpisode(ctx context.Context, id string) (*PodcastEpisode, error) {
	var resp PodcastEpisode
	if err := c.get(ctx, recordPath("/api/podcasts/episodes", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeletePodcastEpisode(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/podcasts/episodes", id))
}
