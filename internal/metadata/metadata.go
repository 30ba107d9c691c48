// Package metadata loads and persists the policy metadata record that
// couples a trained policy to its action table. The record is the
// versioned artifact both training and serving read, so a skewed or
// malformed file must fail loudly at load time.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"janus/internal/action"
	"janus/internal/model"
)

const metadataSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["action_mapping"],
  "properties": {
    "action_mapping": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["index"],
        "properties": {
          "index": {"type": "integer", "minimum": 0},
          "phase": {"type": "string"},
          "duration": {"type": "integer"},
          "barrier_state": {"type": "string"}
        }
      }
    },
    "env": {
      "type": "object",
      "properties": {
        "max_eta_ms": {"type": "integer"},
        "time_step_ms": {"type": "integer"},
        "close_lead_ms": {"type": "integer"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("policy-metadata.schema.json", metadataSchema)

// Load reads a persisted metadata file and builds the action table it
// declares. A wholly missing file is not fatal when defaults are
// supplied; a present file with a missing or empty action_mapping always
// is. The returned table is validated for the controller.
func Load(path string, controller model.Controller, defaults []model.ActionSpec) (model.PolicyMetadata, action.Table, error) {
	if path == "" {
		return fromDefaults(controller, defaults, "no metadata path configured")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fromDefaults(controller, defaults, fmt.Sprintf("metadata file %s missing", path))
		}
		return model.PolicyMetadata{}, action.Table{}, &action.ConfigurationError{
			Reason: fmt.Sprintf("read metadata: %v", err),
			Path:   path,
		}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.PolicyMetadata{}, action.Table{}, &action.ConfigurationError{
			Reason: fmt.Sprintf("invalid metadata JSON: %v", err),
			Path:   path,
		}
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return model.PolicyMetadata{}, action.Table{}, &action.ConfigurationError{
			Reason: fmt.Sprintf("metadata schema violation: %v", err),
			Path:   path,
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	var meta model.PolicyMetadata
	if err := decoder.Decode(&meta); err != nil {
		return model.PolicyMetadata{}, action.Table{}, &action.ConfigurationError{
			Reason: fmt.Sprintf("decode metadata: %v", err),
			Path:   path,
		}
	}
	if meta.Controller == "" {
		meta.Controller = controller
	}

	table, err := action.BuildTable(controller, meta.ActionMapping)
	if err != nil {
		return model.PolicyMetadata{}, action.Table{}, annotate(err, path)
	}
	return meta, table, nil
}

func fromDefaults(controller model.Controller, defaults []model.ActionSpec, why string) (model.PolicyMetadata, action.Table, error) {
	if len(defaults) == 0 {
		return model.PolicyMetadata{}, action.Table{}, &action.ConfigurationError{
			Reason: why + " and no default action mapping supplied",
		}
	}
	table, err := action.BuildTable(controller, defaults)
	if err != nil {
		return model.PolicyMetadata{}, action.Table{}, err
	}
	return model.PolicyMetadata{Controller: controller, ActionMapping: table.Specs()}, table, nil
}

func annotate(err error, path string) error {
	if cfgErr, ok := err.(*action.ConfigurationError); ok && cfgErr.Path == "" {
		return &action.ConfigurationError{Reason: cfgErr.Reason, Path: path}
	}
	return err
}

// Save writes the metadata record next to a trained policy artifact,
// creating parent directories as needed.
func Save(path string, meta model.PolicyMetadata) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("metadata path is required")
	}
	if len(meta.ActionMapping) == 0 {
		return &action.ConfigurationError{Reason: "refusing to persist empty action mapping", Path: path}
	}

	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, payload, 0o644)
}
