// internal/model/artifact.go

// Package model loads the two externally-trained model bundles and
// exposes their prediction contracts. Bundles are opaque to the scorer:
// each couples a preprocessing transform with a fitted model, loaded
// once at startup and read-only for the rest of the run.
package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
)

const (
	KindChurn  = "churn"
	KindTenure = "tenure"
)

// bundleSchema guards against hand-edited or truncated artifact files
// before any field is interpreted.
const bundleSchema = `{
  "type": "object",
  "required": ["kind", "preprocessor", "model"],
  "properties": {
    "kind": {"type": "string", "enum": ["churn", "tenure"]},
    "trained_at": {"type": "string"},
    "preprocessor": {
      "type": "object",
      "required": ["numeric", "categorical"],
      "properties": {
        "numeric": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "median"],
            "properties": {
              "name": {"type": "string"},
              "median": {"type": "number"}
            }
          }
        },
        "categorical": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "values"],
            "properties": {
              "name": {"type": "string"},
              "values": {"type": "array", "items": {"type": "string"}}
            }
          }
        }
      }
    },
    "model": {
      "type": "object",
      "required": ["type", "intercept", "coefficients"],
      "properties": {
        "type": {"type": "string", "enum": ["logistic_regression", "weibull_aft"]},
        "intercept": {"type": "number"},
        "coefficients": {"type": "array", "items": {"type": "number"}},
        "shape": {"type": "number"}
      }
    }
  }
}`

type bundleFile struct {
	Kind         string           `json:"kind"`
	TrainedAt    string           `json:"trained_at,omitempty"`
	Preprocessor preprocessorSpec `json:"preprocessor"`
	Model        modelSpec        `json:"model"`
}

type preprocessorSpec struct {
	Numeric     []numericColumn     `json:"numeric"`
	Categorical []categoricalColumn `json:"categorical"`
}

type numericColumn struct {
	Name   string  `json:"name"`
	Median float64 `json:"median"`
}

type categoricalColumn struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type modelSpec struct {
	Type         string    `json:"type"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Shape        float64   `json:"shape,omitempty"`
}

func loadBundle(path, wantKind string) (*bundleFile, *Preprocessor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, stderrors.NewModelArtifactMissingError(path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(bundleSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, nil, stderrors.NewModelArtifactInvalidError(path, err.Error())
	}
	if !result.Valid() {
		return nil, nil, stderrors.NewModelArtifactInvalidError(path, schemaErrors(result))
	}

	var b bundleFile
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, nil, stderrors.NewModelArtifactInvalidError(path, err.Error())
	}

	if b.Kind != wantKind {
		return nil, nil, stderrors.NewModelArtifactInvalidError(path,
			fmt.Sprintf("bundle kind %q, want %q", b.Kind, wantKind))
	}

	pre, err := newPreprocessor(b.Preprocessor)
	if err != nil {
		return nil, nil, stderrors.NewModelArtifactInvalidError(path, err.Error())
	}

	if got, want := len(b.Model.Coefficients), pre.Width(); got != want {
		return nil, nil, stderrors.NewModelArtifactInvalidError(path,
			fmt.Sprintf("%d coefficients for %d preprocessed features", got, want))
	}

	return &b, pre, nil
}

func schemaErrors(result *gojsonschema.Result) string {
	msg := ""
	for i, e := range result.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += e.String()
	}
	return msg
}
