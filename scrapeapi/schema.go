package scrapeapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/scrape_response.json
var responseSchemaJSON []byte

const responseSchemaURL = "scrape_response.json"

// ErrInvalidPayload wraps a scraper response that is not valid JSON or does
// not have the response shape. Scalar values are not checked here; the
// normalizer coerces them field by field.
var ErrInvalidPayload = errors.New("invalid scrape payload")

var responseSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(responseSchemaURL, bytes.NewReader(responseSchemaJSON)); err != nil {
		panic(fmt.Sprintf("scrapeapi: add schema: %v", err))
	}
	schema, err := compiler.Compile(responseSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("scrapeapi: compile schema: %v", err))
	}
	return schema
}

// DecodePayload parses and validates a scraper response body. Numbers are
// returned as json.Number.
func DecodePayload(r io.Reader) (map[string]any, error) {
	var v any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := responseSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: body is not an object", ErrInvalidPayload)
	}
	return payload, nil
}
