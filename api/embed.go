// Package api описание REST API в формате OpenAPI 3
package api

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// Load разбирает встроенную спецификацию и проверяет ее корректность
func Load(ctx context.Context) (*openapi3.T, error) {
	const op = "api.Load"

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc, nil
}
