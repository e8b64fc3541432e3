package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"aurex/internal/config"
	"aurex/internal/market"
)

// 中文说明：
// Prompt 装配：把行情简报与交易规则拼进提示词，要求模型只回 JSON。
// 简报内部结构不做解释，原样透传。

const systemPrompt = `你是一名期货日内交易决策引擎。你收到一份行情简报和一组硬性交易规则，
只能输出一个 JSON 对象，不要输出任何解释文字或代码块标记。

JSON 字段：
- signal: "buy" | "sell" | "hold" | "close" | "adjust_stop"（必填）
- confidence: 0~1 的小数（必填）
- entry_price, position_size_pct, stop_loss, profit_target: 数值
- scale_out_levels_r, scale_out_pcts: 数组，分批止盈的 R 倍数与百分比权重
- trailing_type: "none" | "atr" | "percent"；trailing_atr_mult / trailing_percent
- time_stop_minutes, cooldown_minutes: 数值
- reasoning: 简短中文理由

开仓信号必须带 stop_loss，且止损在入场价的正确一侧。`

// BuildUserPrompt 渲染一次调用的用户提示词。
func BuildUserPrompt(b market.Briefing, rules config.Rulebook) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## 合约\n%s（最新价 %.2f，ATR %.4f，样本 %d 根）\n\n", b.Symbol, b.LastPrice, b.ATR, b.BarCount)

	sb.WriteString("## 硬性规则\n")
	fmt.Fprintf(&sb, "- 最大仓位比例: %.2f\n", rules.MaxPositionPct)
	fmt.Fprintf(&sb, "- 最小盈亏比: %.2f\n", rules.MinRewardRisk)
	fmt.Fprintf(&sb, "- 最小置信度: %.2f\n", rules.MinConfidence)
	if rules.MandatoryStopLoss {
		sb.WriteString("- 开仓必须给出止损价\n")
	}
	fmt.Fprintf(&sb, "- 当日最大回撤: %.1f%%\n\n", rules.MaxDailyLossPct*100)

	sb.WriteString("## 行情简报\n")
	writeSection(&sb, "订单流", b.OrderFlow)
	writeSection(&sb, "结构", b.Structure)
	writeSection(&sb, "环境", b.Context)
	writeSection(&sb, "账户", b.Account)

	sb.WriteString("\n基于以上信息给出本周期决策 JSON。")
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	fmt.Fprintf(sb, "### %s\n%s\n", title, string(raw))
}

// SystemPrompt 暴露给调度器。
func SystemPrompt() string {
	return systemPrompt
}
