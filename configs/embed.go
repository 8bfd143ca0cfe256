// Package configs provides the embedded configuration template used by
// `codescope init`. Embedding at build time keeps the template available
// in every distribution of the binary.
package configs

import _ "embed"

// ExampleConfig is the starter codescope.yaml template with all keys and
// their defaults.
//
//go:embed codescope.example.yaml
var ExampleConfig string
