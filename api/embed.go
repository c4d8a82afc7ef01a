// Package api holds the OpenAPI document served next to the REST API.
package api

import _ "embed"

// OpenAPI is the OpenAPI 3 description of the REST API.
//
//go:embed openapi.json
var OpenAPI []byte
