package types

import "time"

// GenerateRequest is the body of POST {api_url}/api/generate.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	// Base64 encoded image payloads; always exactly one here.
	Images []string `json:"images"`
	// Always false: only full responses are supported.
	Stream bool `json:"stream"`
}

// GenerateResponse is the subset of the generate response we consume.
type GenerateResponse struct {
	Response string `json:"response"`
}

// TagsResponse is the body of GET {api_url}/api/tags.
type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// NameRequest asks for a name suggestion for a single image.
type NameRequest struct {
	// Path of the image on the local filesystem.
	// example: /home/user/Pictures/IMG_0042.jpg
	ImagePath string `json:"image_path" example:"/home/user/Pictures/IMG_0042.jpg"`
	// Instruction for the model. Empty uses the configured default prompt.
	Prompt string `json:"prompt,omitempty"`
	// Base URL of the inference server. Empty uses the configured default.
	// example: http://localhost:11434
	APIURL string `json:"api_url,omitempty" example:"http://localhost:11434"`
	// Model identifier. Empty uses the configured default.
	// example: qwen2.5vl:3b
	Model string `json:"model,omitempty" example:"qwen2.5vl:3b"`
	// Context window hint in tokens used to size the image budget; 0 means 4096.
	// example: 4096
	ContextLength int `json:"context_length,omitempty" example:"4096"`
}

// ConnectionRequest is the body of POST /v1/connection/test.
type ConnectionRequest struct {
	// example: http://localhost:11434
	APIURL string `json:"api_url,omitempty" example:"http://localhost:11434"`
}

// ConnectionStatus reports the outcome of a connectivity probe.
type ConnectionStatus struct {
	OK bool `json:"ok" example:"true"`
	// example: Connection succeeded: Ollama is running
	Message string `json:"message" example:"Connection succeeded: Ollama is running"`
}

// RenamesRequest is the body of POST /v1/renames.
type RenamesRequest struct {
	Renames []RenameOperation `json:"renames"`
}

// RenamesResponse reports how many renames were applied.
type RenamesResponse struct {
	// example: 3
	Applied int `json:"applied" example:"3"`
}

// ModelsResponse wraps the list of models returned by GET /v1/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// DataURLResponse carries an image encoded as a data URL.
type DataURLResponse struct {
	// example: data:image/png;base64,iVBORw0KGgo=
	DataURL string `json:"data_url" example:"data:image/png;base64,iVBORw0KGgo="`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: file not found: /tmp/missing.jpg
	Error string `json:"error" example:"file not found: /tmp/missing.jpg"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// RenamePlan is a reviewed batch of renames written by `imagesaid name --plan`
// and applied later by `imagesaid rename --plan`.
type RenamePlan struct {
	ID        string            `json:"id" yaml:"id"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	Model     string            `json:"model,omitempty" yaml:"model,omitempty"`
	Renames   []RenameOperation `json:"renames" yaml:"renames"`
}
