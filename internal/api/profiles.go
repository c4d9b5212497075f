package api

import "context"

type EpisodeProfile struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	SpeakerConfig      string `json:"speaker_config"`
	OutlineProvider    string `json:"outline_provider"`
	OutlineModel       string `json:"outline_model"`
	TranscriptProvider string `json:"transcript_provider"`
	TranscriptModel    string `json:"transcript_model"`
	DefaultBriefing    string `json:"default_briefing"`
	NumSegments        int    `json:"num_segments"`
	Created            string `json:"created"`
	Updated            string `json:"updated"`
}

type Speaker struct {
	Name        string `json:"name"`
	VoiceID     string `json:"voice_id"`
	Backstory   string `json:"backstory"`
	Personality string `json:"personality"`
}

type SpeakerProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Speakers    []Speaker `json:"speakers"`
	TTSProvider string    `json:"tts_provider"`
	TTSModel    string    `json:"tts_model"`
	Created     string    `json:"created"`
	Updated     string    `json:"updated"`
}

func (c *Client) ListEpisodeProfiles(ctx context.Context) ([]EpisodeProfile, error) {
	var resp []EpisodeProfile
	if err := c.get(ctx, "/api/episode-profiles", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) DeleteEpisodeProfile(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/episode-profiles", id))
}

func (c *Client) ListSpeakerProfiles(ctx context.Context) ([]SpeakerProfile, error) {
	var resp []SpeakerProfile
	if err := c.get(ctx, "/api/speaker-profiles", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) DeleteSpeakerProfile(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/speaker-profiles", id))
}
