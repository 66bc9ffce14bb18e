package openapi

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"
)

// Spec is a parsed OpenAPI document, held as JSON for gjson traversal.
type Spec struct {
	raw string
}

// ParseSpec accepts a JSON or YAML OpenAPI document.
func ParseSpec(data []byte) (*Spec, error) {
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	raw := string(jsonBytes)
	if !gjson.Get(raw, "paths").Exists() {
		return nil, fmt.Errorf("openapi document has no paths")
	}
	return &Spec{raw: raw}, nil
}

// Title returns info.title, the key under which callers supply the service
// credential.
func (s *Spec) Title() string {
	return gjson.Get(s.raw, "info.title").String()
}

// ServerURL returns the first server entry of the document.
func (s *Spec) ServerURL() string {
	return gjson.Get(s.raw, "servers.0.url").String()
}

// SecurityHeader returns the request header mandated by the first supported
// security scheme in the document: "Authorization: Bearer <token>" for http
// bearer schemes, the named header for apiKey schemes.
func (s *Spec) SecurityHeader(token string) (name, value string, ok bool) {
	gjson.Get(s.raw, "components.securitySchemes").ForEach(func(_, scheme gjson.Result) bool {
		switch scheme.Get("type").String() {
		case "http":
			if strings.EqualFold(scheme.Get("scheme").String(), "bearer") {
				name, value = "Authorization", "Bearer "+token
				return false
			}
		case "apiKey":
			if scheme.Get("in").String() == "header" {
				name, value = scheme.Get("name").String(), token
				return false
			}
		}
		return true
	})
	return name, value, name != ""
}

var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Operation is the resolved HTTP shape of one operationId.
type Operation struct {
	ID          string
	Method      string
	Path        string
	PathParams  []string
	QueryParams []string
}

// ResolveOperation scans the document's paths for the given operationId.
// Pure over the document, no I/O.
func ResolveOperation(spec *Spec, operationID string) (Operation, error) {
	var found Operation
	var ok bool
	gjson.Get(spec.raw, "paths").ForEach(func(path, item gjson.Result) bool {
		for _, method := range httpMethods {
			op := item.Get(method)
			if !op.Exists() || op.Get("operationId").String() != operationID {
				continue
			}
			found = Operation{ID: operationID, Method: strings.ToUpper(method), Path: path.String()}
			op.Get("parameters").ForEach(func(_, param gjson.Result) bool {
				name := param.Get("name").String()
				switch param.Get("in").String() {
				case "path":
					found.PathParams = append(found.PathParams, name)
				case "query":
					found.QueryParams = append(found.QueryParams, name)
				}
				return true
			})
			ok = true
			return false
		}
		return true
	})
	if !ok {
		return Operation{}, fmt.Errorf("operation %q not found in spec %q", operationID, spec.Title())
	}
	return found, nil
}

// BuildRequestURL substitutes path template segments from the argument
// object; remaining primitive arguments become query parameters.
func (op Operation) BuildRequestURL(server string, args map[string]any) (string, error) {
	path := op.Path
	used := make(map[string]bool, len(op.PathParams))
	for _, name := range op.PathParams {
		value, present := args[name]
		if !present {
			return "", fmt.Errorf("missing path parameter %q for operation %q", name, op.ID)
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(fmt.Sprintf("%v", value)))
		used[name] = true
	}

	query := url.Values{}
	for name, value := range args {
		if used[name] {
			continue
		}
		switch value.(type) {
		case string, bool, float64, int, int64:
			query.Set(name, fmt.Sprintf("%v", value))
		}
	}

	full := strings.TrimRight(server, "/") + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full, nil
}
