package risk

import "github.com/shopspring/decimal"

// 价格对齐统一走 decimal，避免 0.02 这类最小变动价位在二进制浮点下的累积误差。

// FloorToTick 向下对齐到最小变动价位。
func FloorToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(tick)
	f, _ := p.Div(t).Floor().Mul(t).Float64()
	return f
}

// CeilToTick 向上对齐到最小变动价位。
func CeilToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(tick)
	f, _ := p.Div(t).Ceil().Mul(t).Float64()
	return f
}

// PriceAtOrBelow 判断 price ≤ level（decimal 精度）。
func PriceAtOrBelow(price, level float64) bool {
	return decimal.NewFromFloat(price).LessThanOrEqual(decimal.NewFromFloat(level))
}

// PriceAtOrAbove 判断 price ≥ level（decimal 精度）。
func PriceAtOrAbove(price, level float64) bool {
	return decimal.NewFromFloat(price).GreaterThanOrEqual(decimal.NewFromFloat(level))
}
