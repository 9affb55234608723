package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale 金额统一保留的小数位
const MoneyScale = 2

// Money 金额类型；入库、出参、解析均按 MoneyScale 四舍五入
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(MoneyScale)}
}

// NewMoneyFromInt 从整数货币单位创建金额
func NewMoneyFromInt(amount int64) Money {
	return Money{Decimal: decimal.NewFromInt(amount)}
}

// ParseMoney 解析十进制金额字符串，空串视为 0
func ParseMoney(raw string) (Money, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Money{}, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money %q: %w", raw, err)
	}
	return NewMoneyFromDecimal(d), nil
}

// MarshalJSON 输出固定 2 位小数的字符串，避免前端浮点误差
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 接受 "12.50" 或 12.5 两种写法
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "" || raw == "null" {
		return nil
	}
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(MoneyScale).Value()
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(MoneyScale)
	return nil
}

// String 返回固定小数位格式
func (m Money) String() string {
	return m.Decimal.Round(MoneyScale).StringFixed(MoneyScale)
}
