package decision

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// 中文说明：
// 模型输出可能夹带解释文字/代码块，这里先提取首个平衡的 JSON 对象，
// 再经 schema 校验与弱类型解码得到 Decision。

// ExtractJSONObject 提取首个平衡的 JSON 对象文本。
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1]), true
			}
		}
	}
	return "", false
}

// Parser 将 Oracle 原文转换为 Decision。
type Parser struct {
	schemas *SchemaRegistry
}

func NewParser(schemas *SchemaRegistry) *Parser {
	return &Parser{schemas: schemas}
}

// Parse 解析单笔决策。失败均归类为 Input-invalid（调用方丢弃并记日志）。
func (p *Parser) Parse(symbol, raw string) (*Decision, error) {
	text, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("决策原文中未找到 JSON 对象")
	}
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("决策 JSON 格式无效")
	}
	sig := strings.TrimSpace(gjson.Get(text, "signal").String())
	if sig == "" {
		return nil, fmt.Errorf("决策缺少 signal 字段")
	}
	if p.schemas != nil {
		if err := p.schemas.Validate(text); err != nil {
			return nil, fmt.Errorf("决策 schema 校验失败: %w", err)
		}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("决策 JSON 解析失败: %w", err)
	}
	var d Decision
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("决策字段解码失败: %w", err)
	}

	signal, ok := ParseSignal(string(d.Signal))
	if !ok {
		return nil, fmt.Errorf("非法 signal: %s", d.Signal)
	}
	d.Signal = signal
	if d.Symbol == "" {
		d.Symbol = symbol
	}
	if d.Plan.Trailing.Mode == "" {
		d.Plan.Trailing.Mode = TrailingNone
	}
	d.TraceID = uuid.NewString()
	d.CreatedAt = time.Now()
	return &d, nil
}
