package decision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"aurex/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// 中文说明：
// 决策结构 schema：默认用内置定义；也可由外部 YAML 覆盖并热更新，
// 便于在不重启内核的情况下随 Prompt 演进收紧/放宽字段约束。

const builtinSchemaJSON = `{
  "type": "object",
  "required": ["signal", "confidence"],
  "properties": {
    "symbol": {"type": "string"},
    "signal": {"type": "string", "enum": ["buy", "sell", "hold", "close", "adjust_stop"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "entry_price": {"type": "number"},
    "position_size_pct": {"type": "number"},
    "stop_loss": {"type": "number"},
    "profit_target": {"type": ["number", "null"]},
    "scale_out_levels_r": {"type": "array", "items": {"type": "number"}},
    "scale_out_pcts": {"type": "array", "items": {"type": "number"}},
    "trailing_type": {"type": "string", "enum": ["none", "atr", "percent"]},
    "trailing_atr_mult": {"type": "number"},
    "trailing_percent": {"type": "number"},
    "time_stop_minutes": {"type": "number"},
    "cooldown_minutes": {"type": "number"},
    "plan_id": {"type": "string"},
    "reasoning": {"type": "string"}
  }
}`

type schemaFile struct {
	DecisionSchema map[string]any `yaml:"decision_schema"`
}

// SchemaRegistry 持有当前生效的决策 schema。
type SchemaRegistry struct {
	path string

	mu       sync.RWMutex
	compiled *jsonschema.Schema
}

// NewSchemaRegistry 编译内置 schema；path 非空时加载文件覆盖并监听更新。
func NewSchemaRegistry(path string) (*SchemaRegistry, error) {
	builtin, err := compileSchema([]byte(builtinSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("builtin decision schema compile failed: %w", err)
	}
	r := &SchemaRegistry{path: strings.TrimSpace(path), compiled: builtin}
	if r.path == "" {
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(r.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read decision schema config failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("decision schema reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// Validate 校验一段决策 JSON 文本。
func (r *SchemaRegistry) Validate(text string) error {
	r.mu.RLock()
	schema := r.compiled
	r.mu.RUnlock()
	if schema == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

func (r *SchemaRegistry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read decision schema failed: %w", err)
	}
	var file schemaFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("parse decision schema failed: %w", err)
	}
	if len(file.DecisionSchema) == 0 {
		return fmt.Errorf("decision schema file %s missing decision_schema", r.path)
	}
	data, err := json.Marshal(file.DecisionSchema)
	if err != nil {
		return err
	}
	compiled, err := compileSchema(data)
	if err != nil {
		return fmt.Errorf("decision schema compile failed: %w", err)
	}
	r.mu.Lock()
	r.compiled = compiled
	r.mu.Unlock()
	logger.Infof("decision schema loaded from %s", r.path)
	return nil
}

func compileSchema(raw []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("decision.json", bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile("decision.json")
}
