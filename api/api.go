// Package api embeds the HTTP API contract.
package api

import _ "embed"

// OpenAPI is the OpenAPI 3 description of the REST API.
//
//go:embed openapi/openapi.yaml
var OpenAPI []byte
