//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/connection/test": {"post": {"summary": "Check that the inference server answers", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "ConnectionStatus"}}}},
        "/v1/names": {"post": {"summary": "Suggest a file name for one image", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "ProcessingResult"}, "400": {"description": "invalid path"}, "404": {"description": "file not found"}, "422": {"description": "empty name"}, "502": {"description": "inference server error"}}}},
        "/v1/renames": {"post": {"summary": "Apply a batch of renames", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "RenamesResponse"}, "404": {"description": "source missing"}, "409": {"description": "destination exists"}}}},
        "/v1/images/info": {"get": {"summary": "Image file metadata", "parameters": [{"name": "path", "in": "query", "required": true, "type": "string"}], "produces": ["application/json"], "responses": {"200": {"description": "ImageInfo"}}}},
        "/v1/images/data-url": {"get": {"summary": "Image file as a base64 data URL", "parameters": [{"name": "path", "in": "query", "required": true, "type": "string"}], "produces": ["application/json"], "responses": {"200": {"description": "DataURLResponse"}, "404": {"description": "file not found"}}}},
        "/v1/models": {"get": {"summary": "Models installed on the inference server", "parameters": [{"name": "api_url", "in": "query", "type": "string"}], "produces": ["application/json"], "responses": {"200": {"description": "ModelsResponse"}, "502": {"description": "inference server error"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "imagesaid API",
	Description:      "Suggests file names for images with a local vision model and renames them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
