// Package config handles loading and validation of the portclaim
// configuration file.
//
// Two formats are supported, selected by file extension:
//   - portclaim.json — JSONC (JSON with Comments), stripped with
//     github.com/tidwall/jsonc before parsing with encoding/json
//   - portclaim.yaml / portclaim.yml — parsed with gopkg.in/yaml.v3
//
// When no file is found and no flags are given, built-in defaults
// reproduce the tool's original behavior: reclaim port 5000 and launch
// "python app.py" (a Flask development server).
package config
