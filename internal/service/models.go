package service

import (
	"fmt"
	"strings"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
)

// SelectModel picks the language model used when none is configured: the
// backend's default chat model when set, else the first language model.
// It returns "" when no language model exists.
func SelectModel(models []api.Model, defaults *api.DefaultModels) string {
	if defaults != nil && defaults.DefaultChatModel != nil && *defaults.DefaultChatModel != "" {
		return *defaults.DefaultChatModel
	}
	for _, m := range models {
		if m.Type == "" || m.Type == api.ModelLanguage {
			return m.ID
		}
	}
	return ""
}

// SelectModels fills the roles left empty in configured with the selected
// default model.
func SelectModels(configured answer.Models, models []api.Model, defaults *api.DefaultModels) answer.Models {
	if configured.Strategy != "" && configured.Answer != "" && configured.Final != "" {
		return configured
	}
	def := SelectModel(models, defaults)
	out := configured
	if out.Answer == "" {
		out.Answer = def
	}
	if out.Strategy == "" {
		out.Strategy = out.Answer
	}
	if out.Final == "" {
		out.Final = out.Answer
	}
	return out
}

// ModelDisplay holds display-ready model info.
type ModelDisplay struct {
	ID       string
	Name     string
	Provider string
	Type     string
	Default  bool
}

// FormatModels maps raw models to display rows, marking the default chat
// model.
func FormatModels(models []api.Model, defaults *api.DefaultModels) []ModelDisplay {
	var defChat string
	if defaults != nil && defaults.DefaultChatModel != nil {
		defChat = *defaults.DefaultChatModel
	}
	out := make([]ModelDisplay, 0, len(models))
	for _, m := range models {
		out = append(out, ModelDisplay{
			ID:       m.ID,
			Name:     m.Name,
			Provider: m.Provider,
			Type:     m.Type,
			Default:  defChat != "" && m.ID == defChat,
		})
	}
	return out
}

// DefaultModelRows lists the configured default for each role, in a fixed
// order, as label/value pairs.
func DefaultModelRows(d *api.DefaultModels) [][2]string {
	val := func(p *string) string {
		if p == nil || *p == "" {
			return "(not set)"
		}
		return *p
	}
	if d == nil {
		d = &api.DefaultModels{}
	}
	return [][2]string{
		{"Chat", val(d.DefaultChatModel)},
		{"Transformation", val(d.DefaultTransformationModel)},
		{"Large context", val(d.LargeContextModel)},
		{"Tools", val(d.DefaultToolsModel)},
		{"Embedding", val(d.DefaultEmbeddingModel)},
		{"Text to speech", val(d.DefaultTextToSpeechModel)},
		{"Speech to text", val(d.DefaultSpeechToTextModel)},
	}
}

// DefaultModelRoles lists the roles DefaultModelUpdate accepts, in the
// order DefaultModelRows prints them.
func DefaultModelRoles() []string {
	return []string{"chat", "transformation", "large_context", "tools", "embedding", "text_to_speech", "speech_to_text"}
}

// DefaultModelUpdate builds an update that sets only role to modelID.
// Dashes in role are read as underscores.
func DefaultModelUpdate(role, modelID string) (api.DefaultModels, error) {
	var d api.DefaultModels
	if strings.TrimSpace(modelID) == "" {
		return d, fmt.Errorf("model id is required")
	}
	id := &modelID
	switch strings.ReplaceAll(strings.ToLower(role), "-", "_") {
	case "chat":
		d.DefaultChatModel = id
	case "transformation":
		d.DefaultTransformationModel = id
	case "large_context":
		d.LargeContextModel = id
	case "tools":
		d.DefaultToolsModel = id
	case "embedding":
		d.DefaultEmbeddingModel = id
	case "text_to_speech":
		d.DefaultTextToSpeechModel = id
	case "speech_to_text":
		d.DefaultSpeechToTextModel = id
	default:
		return d, fmt.Errorf("unknown model role %q (valid: %s)", role, strings.Join(DefaultModelRoles(), ", "))
	}
	return d, nil
}

// ValidModelType reports whether t is a model type the backend knows.
func ValidModelType(t string) bool {
	switch t {
	case api.ModelLanguage, api.ModelEmbedding, api.ModelTextToSpeech, api.ModelSpeechToText:
		return true
	}
	return false
}
