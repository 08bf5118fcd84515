package types

// RenameOperation asks for one file to be renamed in place.
// Only the part before the final '.' is replaced; the extension is preserved.
type RenameOperation struct {
	// Path of the file to rename.
	// example: /home/user/Pictures/IMG_0042.jpg
	OldPath string `json:"old_path" yaml:"old_path" example:"/home/user/Pictures/IMG_0042.jpg"`
	// New base name without extension.
	// example: lawn_golden-retriever_catching-frisbee
	NewName string `json:"new_name" yaml:"new_name" example:"lawn_golden-retriever_catching-frisbee"`
}

// ProcessingResult is the outcome of naming one image.
type ProcessingResult struct {
	// Sanitized file name suggested by the model (no extension, at most 100 characters).
	// example: A Red Sports Car
	NewName string `json:"new_name" example:"A Red Sports Car"`
	// Wall-clock processing time in milliseconds.
	// example: 1830
	ProcessingTimeMS uint64 `json:"processing_time" example:"1830"`
}

// ModelDetails describes a model as reported by the inference server.
// Every field is optional upstream and decodes to "" when absent.
type ModelDetails struct {
	// example: gguf
	Format string `json:"format" example:"gguf"`
	// example: qwen25vl
	Family string `json:"family" example:"qwen25vl"`
	// example: 3.8B
	ParameterSize string `json:"parameter_size" example:"3.8B"`
	// example: Q4_K_M
	QuantizationLevel string `json:"quantization_level" example:"Q4_K_M"`
}

// ModelInfo is one entry of the inference server's model list.
type ModelInfo struct {
	// example: qwen2.5vl:3b
	Name string `json:"name" example:"qwen2.5vl:3b"`
	// Size on disk in bytes.
	// example: 3200000000
	Size int64 `json:"size" example:"3200000000"`
	// Content digest.
	// example: 2f2a0e9c4c1d
	Digest string `json:"digest" example:"2f2a0e9c4c1d"`
	// Last modification time as reported upstream, if any.
	ModifiedAt string       `json:"modified_at,omitempty"`
	Details    ModelDetails `json:"details"`
}

// ImageInfo is basic metadata about an image file. Only Filename, Size and
// SizeText are always populated; the rest are filled when they can be read.
type ImageInfo struct {
	// example: IMG_0042.jpg
	Filename string `json:"filename" example:"IMG_0042.jpg"`
	// Size in bytes; -1 when unknown.
	// example: 2048576
	Size int64 `json:"size" example:"2048576"`
	// Human readable size, "Unknown" when the file cannot be stat'ed.
	// example: 2048576 bytes
	SizeText string `json:"size_text" example:"2048576 bytes"`
	// example: 4032
	Width int `json:"width,omitempty" example:"4032"`
	// example: 3024
	Height int `json:"height,omitempty" example:"3024"`
	// Decoded format name.
	// example: jpeg
	Format string `json:"format,omitempty" example:"jpeg"`
	// Capture time from EXIF in RFC 3339.
	TakenAt string `json:"taken_at,omitempty"`
	// Camera model from EXIF.
	Camera string `json:"camera,omitempty"`
}

// PromptTemplate is a named prompt the user can pick instead of typing one.
type PromptTemplate struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Content string `json:"content" yaml:"content" toml:"content"`
}
