package api

import "context"

// API defines the interface for the CosmiQ backend client.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type API interface {
	Asker
	AskSimple(ctx context.Context, req AskRequest) (*AskResponse, error)

	ListNotebooks(ctx context.Context, opts NotebookListOptions) ([]Notebook, error)
	GetNotebook(ctx context.Context, id string) (*Notebook, error)
	CreateNotebook(ctx context.Context, req CreateNotebookRequest) (*Notebook, error)
	UpdateNotebook(ctx context.Context, id string, req UpdateNotebookRequest) (*Notebook, error)
	DeleteNotebook(ctx context.Context, id string) error

	ListSources(ctx context.Context, notebookID string) ([]Source, error)
	GetSource(ctx context.Context, id string) (*Source, error)
	CreateSource(ctx context.Context, req CreateSourceRequest) (*Source, error)
	UpdateSource(ctx context.Context, id string, req UpdateSourceRequest) (*Source, error)
	DeleteSource(ctx context.Context, id string) error
	ListSourceInsights(ctx context.Context, sourceID string) ([]SourceInsight, error)
	CreateSourceInsight(ctx context.Context, sourceID, transformationID, modelID string) (*SourceInsight, error)
	GetInsight(ctx context.Context, id string) (*SourceInsight, error)

	ListNotes(ctx context.Context, notebookID string) ([]Note, error)
	GetNote(ctx context.Context, id string) (*Note, error)
	CreateNote(ctx context.Context, req CreateNoteRequest) (*Note, error)
	UpdateNote(ctx context.Context, id string, req UpdateNoteRequest) (*Note, error)
	DeleteNote(ctx context.Context, id string) error

	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)

	ListModels(ctx context.Context, modelType string) ([]Model, error)
	CreateModel(ctx context.Context, req CreateModelRequest) (*Model, error)
	DeleteModel(ctx context.Context, id string) error
	GetDefaultModels(ctx context.Context) (*DefaultModels, error)
	UpdateDefaultModels(ctx context.Context, req DefaultModels) (*DefaultModels, error)

	ListTransformations(ctx context.Context) ([]Transformation, error)
	GetTransformation(ctx context.Context, id string) (*Transformation, error)
	CreateTransformation(ctx context.Context, req CreateTransformationRequest) (*Transformation, error)
	UpdateTransformation(ctx context.Context, id string, req UpdateTransformationRequest) (*Transformation, error)
	DeleteTransformation(ctx context.Context, id string) error
	ExecuteTransformation(ctx context.Context, req ExecuteTransformationRequest) (*ExecuteTransformationResponse, error)

	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, update Settings) (Settings, error)

	ListEpisodeProfiles(ctx context.Context) ([]EpisodeProfile, error)
	DeleteEpisodeProfile(ctx context.Context, id string) error
	ListSpeakerProfiles(ctx context.Context) ([]SpeakerProfile, error)
	DeleteSpeakerProfile(ctx context.Context, id string) error

	GeneratePodcast(ctx context.Context, req GeneratePodcastRequest) (*PodcastJob, error)
	GetPodcastJob(ctx context.Context, jobID string) (*PodcastJobStatus, error)
	ListPodcastEpisodes(ctx context.Context, notebookID string) ([]PodcastEpisode, error)
	GetPodcastEpisode(ctx context.Context, id string) (*PodcastEpisode, error)
	DeletePodcastEpisode(ctx context.Context, id string) error
}

var _ API = (*Client)(nil)
