package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// schemaDoc enumerates every recognized top-level and nested key from §6.2.
// additionalProperties:false at each level is what rejects unknown fields.
const schemaDoc = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string"},
    "extends": {"type": "array", "items": {"type": "string"}},
    "global": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "logLevel": {"type": "string", "enum": ["debug", "info", "warn", "error"]}
      }
    },
    "rules": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "purchase": {"$ref": "#/definitions/purchaseRule"},
        "website": {"$ref": "#/definitions/websiteRule"},
        "destructive": {"$ref": "#/definitions/destructiveRule"},
        "secrets": {"$ref": "#/definitions/secretsRule"},
        "exfiltration": {"$ref": "#/definitions/exfiltrationRule"},
        "sanitization": {"$ref": "#/definitions/sanitizationRule"}
      }
    },
    "approval": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "native": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"enabled": {"type": "boolean"}, "timeout": {"type": "integer"}}
        },
        "agentConfirm": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"enabled": {"type": "boolean"}, "parameterName": {"type": "string"}}
        },
        "webhook": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "enabled": {"type": "boolean"},
            "url": {"type": "string"},
            "timeout": {"type": "integer"},
            "headers": {"type": "object"}
          }
        }
      }
    },
    "llm": {
      "type": "object",
      "additionalProperties": false,
      "properties": {"enabled": {"type": "boolean"}, "model": {"type": "string"}}
    }
  },
  "definitions": {
    "commonRule": {
      "enabled": {"type": "boolean"},
      "severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
      "action": {"type": "string", "enum": ["allow", "log", "warn", "confirm", "block", "agent-confirm", ""]},
      "condition": {"type": "string"},
      "conditionAction": {"type": "string"},
      "rego": {"type": "string"}
    },
    "purchaseRule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"}, "severity": {"type": "string"}, "action": {"type": "string"},
        "condition": {"type": "string"}, "conditionAction": {"type": "string"}, "rego": {"type": "string"},
        "domainMode": {"type": "string", "enum": ["allowlist", "blocklist"]},
        "paymentDomains": {"type": "array", "items": {"type": "string"}},
        "spendLimits": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"perTransaction": {"type": "number"}, "daily": {"type": "number"}}
        }
      }
    },
    "websiteRule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"}, "severity": {"type": "string"}, "action": {"type": "string"},
        "condition": {"type": "string"}, "conditionAction": {"type": "string"}, "rego": {"type": "string"},
        "mode": {"type": "string", "enum": ["allowlist", "blocklist"]},
        "allowlist": {"type": "array", "items": {"type": "string"}},
        "blocklist": {"type": "array", "items": {"type": "string"}}
      }
    },
    "destructiveRule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"}, "severity": {"type": "string"}, "action": {"type": "string"},
        "condition": {"type": "string"}, "conditionAction": {"type": "string"}, "rego": {"type": "string"},
        "shellPatterns": {"type": "array", "items": {"type": "string"}},
        "cloudPatterns": {"type": "array", "items": {"type": "string"}},
        "codePatterns": {"type": "array", "items": {"type": "string"}}
      }
    },
    "secretsRule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"}, "severity": {"type": "string"}, "action": {"type": "string"},
        "condition": {"type": "string"}, "conditionAction": {"type": "string"}, "rego": {"type": "string"},
        "patterns": {"type": "array", "items": {"type": "string"}},
        "includeEmail": {"type": "boolean"}
      }
    },
    "exfiltrationRule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"}, "severity": {"type": "string"}, "action": {"type": "string"},
        "condition": {"type": "string"}, "conditionAction": {"type": "string"}, "rego": {"type": "string"},
        "trustedUploadTo": {"type": "array", "items": {"type": "string"}}
      }
    },
    "sanitizationRule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "minConfidence": {"type": "number"},
        "redactMatches": {"type": "boolean"},
        "categories": {"type": "object"},
        "action": {"type": "string"},
        "decodeEncodedPayloads": {"type": "boolean"},
        "secretsEnabled": {"type": "boolean"},
        "includeEmail": {"type": "boolean"}
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("clawsec-config.json", strings.NewReader(schemaDoc)); err != nil {
		panic(fmt.Sprintf("clawsec: embedded config schema is invalid: %v", err))
	}
	schema, err := compiler.Compile("clawsec-config.json")
	if err != nil {
		panic(fmt.Sprintf("clawsec: embedded config schema failed to compile: %v", err))
	}
	return schema
}

// ValidateSchema rejects a merged YAML document containing any field not
// recognized by §6.2 (additionalProperties:false at every level).
func ValidateSchema(mergedYAML []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(mergedYAML, &doc); err != nil {
		return fmt.Errorf("config: unmarshal for validation: %w", err)
	}

	// jsonschema validates against plain JSON types; round-trip through
	// encoding/json to normalize yaml.v3's decoded types (e.g. map key
	// types, integer vs float) the same way a JSON document would arrive.
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshal for validation: %w", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(asJSON, &normalized); err != nil {
		return fmt.Errorf("config: normalize for validation: %w", err)
	}

	if err := compiledSchema.Validate(normalized); err != nil {
		return fmt.Errorf("config: schema validation failed: %w", err)
	}
	return nil
}

// supportedVersions are the schema versions this build understands.
var supportedVersions = mustParseConstraint(">= 1.0.0, < 2.0.0")

func mustParseConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(fmt.Sprintf("clawsec: invalid version constraint %q: %v", c, err))
	}
	return constraint
}

// CheckVersion validates the document's version field against the schema
// versions this build understands. A bare "1" is treated as "1.0.0".
func CheckVersion(version string) error {
	if version == "" {
		return fmt.Errorf("config: version field is required")
	}
	normalized := version
	if !strings.Contains(normalized, ".") {
		normalized += ".0.0"
	}
	v, err := semver.NewVersion(normalized)
	if err != nil {
		return fmt.Errorf("config: invalid version %q: %w", version, err)
	}
	if !supportedVersions.Check(v) {
		return fmt.Errorf("config: version %q is not supported by this build (expected %s)", version, supportedVersions)
	}
	return nil
}
