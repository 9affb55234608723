package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 通用 JSON 对象列
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	raw, ok := rawJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, j)
}

// StringArray 字符串数组列，用于会员等级限定等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	raw, ok := rawJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, s)
}

// UintArray ID 数组列，用于用户、商品限定
type UintArray []uint

// Value 实现 driver.Valuer 接口
func (u UintArray) Value() (driver.Value, error) {
	if u == nil {
		return nil, nil
	}
	return json.Marshal(u)
}

// Scan 实现 sql.Scanner 接口
func (u *UintArray) Scan(value interface{}) error {
	if value == nil {
		*u = UintArray{}
		return nil
	}
	raw, ok := rawJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, u)
}

// Contains 判断是否包含指定 ID
func (u UintArray) Contains(id uint) bool {
	for _, item := range u {
		if item == id {
			return true
		}
	}
	return false
}

func rawJSONBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	case string:
		if v == "" {
			return nil, false
		}
		return []byte(v), true
	default:
		return nil, false
	}
}
