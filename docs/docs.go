// Package docs embeds the console's OpenAPI description.
package docs

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
