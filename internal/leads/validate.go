package leads

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	schemasOnce sync.Once
	schemas     map[string]*gojsonschema.Schema
	schemasErr  error
)

// ValidationError reports a request body that does not fit its schema.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

func loadSchemas() {
	schemas = make(map[string]*gojsonschema.Schema)
	for _, name := range []string{"inquiry", "estimate", "job", "job_update"} {
		data, err := schemaFiles.ReadFile("schemas/" + name + ".json")
		if err != nil {
			schemasErr = err
			return
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			schemasErr = fmt.Errorf("compile %s schema: %w", name, err)
			return
		}
		schemas[name] = schema
	}
}

// decode validates body against the named schema and unmarshals it into v.
func decode(name string, body []byte, v interface{}) error {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return schemasErr
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return &ValidationError{Problems: []string{"request body must be a JSON object"}}
	}

	result, err := schemas[name].Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return &ValidationError{Problems: problems}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}

func DecodeInquiry(body []byte) (InquiryRequest, error) {
	var req InquiryRequest
	err := decode("inquiry", body, &req)
	return req, err
}

func DecodeEstimate(body []byte) (EstimateRequest, error) {
	var req EstimateRequest
	err := decode("estimate", body, &req)
	return req, err
}

func DecodePipelineJob(body []byte) (PipelineJobRequest, error) {
	var req PipelineJobRequest
	err := decode("job", body, &req)
	return req, err
}

func DecodeJobUpdate(body []byte) (JobUpdateRequest, error) {
	var req JobUpdateRequest
	err := decode("job_update", body, &req)
	return req, err
}
