package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v2"
)

// setupDocsRoutes serves the OpenAPI specification.
func (s *Server) setupDocsRoutes(r *mux.Router) {
	r.HandleFunc("/docs/openapi.yaml", s.handleOpenAPISpec).Methods("GET")
	r.HandleFunc("/docs/openapi.json", s.handleOpenAPISpec).Methods("GET")
}

// handleOpenAPISpec serves the spec as YAML, or converted to JSON when the
// .json path is requested.
func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	specPath := filepath.Join("docs", "openapi.yaml")

	if !strings.HasSuffix(r.URL.Path, ".json") {
		w.Header().Set("Content-Type", "text/yaml")
		http.ServeFile(w, r, specPath)
		return
	}

	yamlData, err := os.ReadFile(specPath)
	if err != nil {
		http.Error(w, "OpenAPI spec not found", http.StatusNotFound)
		return
	}

	var spec interface{}
	if err := yaml.Unmarshal(yamlData, &spec); err != nil {
		http.Error(w, "Error parsing OpenAPI spec", http.StatusInternalServerError)
		return
	}

	jsonData, err := json.MarshalIndent(convertYAMLKeys(spec), "", "  ")
	if err != nil {
		http.Error(w, "Error converting to JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonData)
}

// convertYAMLKeys rewrites yaml.v2's map[interface{}]interface{} trees into
// map[string]interface{} so encoding/json can marshal them.
func convertYAMLKeys(in interface{}) interface{} {
	switch v := in.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if k, ok := key.(string); ok {
				out[k] = convertYAMLKeys(value)
			}
		}
		return out
	case []interface{}:
		for i, value := range v {
			v[i] = convertYAMLKeys(value)
		}
		return v
	default:
		return in
	}
}
