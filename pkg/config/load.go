package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// TemplateLoader resolves a template name (from extends[]) to its on-disk
// document. The default implementation looks in a fixed directory relative
// to the root config file.
type TemplateLoader func(name string) ([]byte, error)

// DirTemplateLoader returns a TemplateLoader that reads "<dir>/<name>.yaml".
func DirTemplateLoader(dir string) TemplateLoader {
	return func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name+".yaml"))
	}
}

// Load reads path, recursively merges every template named in its
// extends[] chain (deepest first, user config last), validates the result,
// and returns the merged, validated Config.
func Load(path string, loadTemplate TemplateLoader) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, newConfigError("read config file", err)
	}

	merged, err := loadAndMerge(raw, loadTemplate, make(map[string]bool))
	if err != nil {
		return Config{}, err
	}

	if err := ValidateSchema(merged); err != nil {
		return Config{}, newConfigError("validate config", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(merged, &cfg); err != nil {
		return Config{}, newConfigError("unmarshal merged config", err)
	}

	if err := CheckVersion(cfg.Version); err != nil {
		return Config{}, newConfigError("check config version", err)
	}

	return cfg, nil
}

// loadAndMerge deep-merges a document's extends[] chain under the document
// itself. visiting tracks template names already on the current recursion
// path to reject cycles.
func loadAndMerge(raw []byte, loadTemplate TemplateLoader, visiting map[string]bool) ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, newConfigError("unmarshal config document", err)
	}

	extendsRaw, _ := doc["extends"].([]interface{})
	if len(extendsRaw) == 0 {
		return raw, nil
	}

	var base map[string]interface{}
	for _, e := range extendsRaw {
		name, ok := e.(string)
		if !ok || name == "" {
			continue
		}
		if visiting[name] {
			return nil, fmt.Errorf("config: extends cycle detected at template %q", name)
		}
		if loadTemplate == nil {
			return nil, fmt.Errorf("config: extends %q but no template loader configured", name)
		}

		templateRaw, err := loadTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("config: load template %q: %w", name, err)
		}

		visiting[name] = true
		mergedTemplate, err := loadAndMerge(templateRaw, loadTemplate, visiting)
		delete(visiting, name)
		if err != nil {
			return nil, err
		}

		var templateDoc map[string]interface{}
		if err := yaml.Unmarshal(mergedTemplate, &templateDoc); err != nil {
			return nil, newConfigError("unmarshal merged template "+name, err)
		}

		if base == nil {
			base = templateDoc
		} else {
			base = deepMerge(base, templateDoc)
		}
	}

	delete(doc, "extends")
	result := deepMerge(base, doc)

	out, err := yaml.Marshal(result)
	if err != nil {
		return nil, newConfigError("remarshal merged config", err)
	}
	return out, nil
}

// deepMerge merges override on top of base: mappings recurse, sequences
// concatenate and deduplicate, scalars are last-writer-wins (§6.2).
func deepMerge(base, override map[string]interface{}) map[string]interface{} {
	if base == nil {
		return override
	}
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		existing, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		out[k] = mergeValue(existing, v)
	}
	return out
}

func mergeValue(existing, incoming interface{}) interface{} {
	switch e := existing.(type) {
	case map[string]interface{}:
		if i, ok := incoming.(map[string]interface{}); ok {
			return deepMerge(e, i)
		}
		return incoming
	case []interface{}:
		if i, ok := incoming.([]interface{}); ok {
			return dedupeSequence(append(append([]interface{}{}, e...), i...))
		}
		return incoming
	default:
		return incoming
	}
}

func dedupeSequence(seq []interface{}) []interface{} {
	seen := make(map[interface{}]bool, len(seq))
	out := make([]interface{}, 0, len(seq))
	for _, v := range seq {
		key, hashable := v.(string)
		if !hashable {
			out = append(out, v)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func newConfigError(op string, err error) error {
	return &clawsec.Error{Kind: clawsec.ErrKindConfig, Op: op, Err: err}
}
