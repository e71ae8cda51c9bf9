package entities

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// ErrInvalidItems 任务明细不是合法的JSON数组
var ErrInvalidItems = errors.New("items必须是JSON数组")

// Items 任务明细，原样保存客户端提交的JSON数组
//
// 客户端既可以直接提交数组，也可以提交JSON编码后的字符串。
// 数据库中以JSONB（PostgreSQL）或TEXT（SQLite）存储。
type Items json.RawMessage

// ItemLine 明细中与库存相关的字段
type ItemLine struct {
	ProductCode string `json:"product_code"`
	ProductID   string `json:"product_id"`
	ID          string `json:"id"`
	Quantity    int    `json:"quantity"`
}

// Ref 返回匹配商品所用的列和值：优先商品编码，其次商品ID
func (l ItemLine) Ref() (column, value string) {
	switch {
	case l.ProductCode != "":
		return "product_code", l.ProductCode
	case l.ProductID != "":
		return "id", l.ProductID
	case l.ID != "":
		return "id", l.ID
	}
	return "", ""
}

// NewItems 校验并创建明细
func NewItems(raw []byte) (Items, error) {
	var items Items
	if err := items.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return items, nil
}

// MarshalJSON 输出JSON数组，空值输出[]
func (i Items) MarshalJSON() ([]byte, error) {
	if len(i) == 0 {
		return []byte("[]"), nil
	}
	return []byte(i), nil
}

// UnmarshalJSON 接受JSON数组或包含JSON数组的字符串
func (i *Items) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*i = nil
		return nil
	}

	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return ErrInvalidItems
		}
		trimmed = bytes.TrimSpace([]byte(encoded))
		if len(trimmed) == 0 {
			*i = nil
			return nil
		}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return ErrInvalidItems
	}

	*i = append(Items(nil), trimmed...)
	return nil
}

// Value 实现driver.Valuer，返回字符串以便lib/pq按文本写入JSONB
func (i Items) Value() (driver.Value, error) {
	if len(i) == 0 {
		return "[]", nil
	}
	return string(i), nil
}

// Scan 实现sql.Scanner
func (i *Items) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*i = nil
	case []byte:
		*i = append(Items(nil), v...)
	case string:
		*i = Items(v)
	default:
		return fmt.Errorf("无法将%T转换为Items", src)
	}
	return nil
}

// Lines 解析明细中的商品编码与数量
func (i Items) Lines() ([]ItemLine, error) {
	if len(i) == 0 {
		return nil, nil
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(i, &raw); err != nil {
		return nil, ErrInvalidItems
	}

	lines := make([]ItemLine, 0, len(raw))
	for _, m := range raw {
		qty, err := toInt(m["quantity"])
		if err != nil {
			return nil, fmt.Errorf("%w: quantity %v", ErrInvalidItems, m["quantity"])
		}
		lines = append(lines, ItemLine{
			ProductCode: toString(m["product_code"]),
			ProductID:   toString(m["product_id"]),
			ID:          toString(m["id"]),
			Quantity:    qty,
		})
	}
	return lines, nil
}

// Equal 按JSON语义比较两个明细
func (i Items) Equal(other Items) bool {
	var a, b interface{}
	if err := json.Unmarshal(i.orEmpty(), &a); err != nil {
		return false
	}
	if err := json.Unmarshal(other.orEmpty(), &b); err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func (i Items) orEmpty() []byte {
	if len(i) == 0 {
		return []byte("[]")
	}
	return i
}

// Settings 用户偏好设置
type Settings map[string]interface{}

// Value 实现driver.Valuer
func (s Settings) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现sql.Scanner
func (s *Settings) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Settings{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("无法将%T转换为Settings", src)
	}

	result := Settings{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			return err
		}
	}
	*s = result
	return nil
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(t), nil
	case string:
		if t == "" {
			return 0, nil
		}
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
