package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonbValue 序列化为 jsonb 列
func jsonbValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonbScan 从 jsonb 列反序列化
func jsonbScan(src interface{}, dst interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
