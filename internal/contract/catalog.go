package contract

import (
	"fmt"
	"strings"

	"aurex/internal/config"
)

// Direction 标识持仓方向，保证金率可能按方向不同。
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Spec 是单个合约的静态参数快照。
type Spec struct {
	Symbol           string
	Multiplier       float64 // 合约乘数（克/吨 每手）
	PriceTick        float64
	MinLots          int
	MarginRatioLong  float64
	MarginRatioShort float64
}

// MarginRatio 返回指定方向的保证金率，钳制到 1% 下限以防脏数据放大手数。
func (s Spec) MarginRatio(dir Direction) float64 {
	r := s.MarginRatioLong
	if dir == Short {
		r = s.MarginRatioShort
	}
	if r < 0.01 {
		return 0.01
	}
	return r
}

// Catalog 按合约代码提供 Spec。配置是唯一来源。
type Catalog struct {
	specs map[string]Spec
}

func NewCatalog(symbols []config.SymbolConfig) (*Catalog, error) {
	specs := make(map[string]Spec, len(symbols))
	for _, sc := range symbols {
		sym := normalize(sc.Symbol)
		if sym == "" {
			return nil, fmt.Errorf("contract catalog: empty symbol")
		}
		specs[sym] = Spec{
			Symbol:           sym,
			Multiplier:       sc.Multiplier,
			PriceTick:        sc.PriceTick,
			MinLots:          sc.MinLots,
			MarginRatioLong:  sc.MarginRatioLong,
			MarginRatioShort: sc.MarginRatioShort,
		}
	}
	return &Catalog{specs: specs}, nil
}

func (c *Catalog) Lookup(symbol string) (Spec, bool) {
	s, ok := c.specs[normalize(symbol)]
	return s, ok
}

func normalize(symbol string) string {
	return strings.TrimSpace(symbol)
}
