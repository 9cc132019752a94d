package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Response contracts checked before decoding.
const (
	schemaStatus    = "status.json"
	schemaUpload    = "upload.json"
	schemaDashboard = "dashboard.json"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		names := []string{schemaStatus, schemaUpload, schemaDashboard}
		for _, name := range names {
			b, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemasErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
				schemasErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
		}
		compiled := make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			s, err := compiler.Compile(name)
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[name] = s
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// validateResponse checks body against the named contract. A mismatch is a
// ServerError with code 502: the server answered, but not with what we expect.
func validateResponse(name string, body []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return &ServerError{Code: 502, Message: fmt.Sprintf("invalid response: %v", err)}
	}
	if err := all[name].Validate(v); err != nil {
		return &ServerError{Code: 502, Message: fmt.Sprintf("invalid response: %v", err)}
	}
	return nil
}
