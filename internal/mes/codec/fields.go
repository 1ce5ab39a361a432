package codec

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// HasID 判断实体是否已持久化：非空且不为 "0"
func HasID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "0"
}

// ============================================================
// 字段构造
// ============================================================

// Key 记录主键，只解码；缺失时为空字符串
func Key(name string) Field {
	return Field{Client: name, Server: name, Decode: decodeID}
}

// Text 字符串字段，缺失时为空字符串
func Text(client, server string) Field {
	return TextOr(client, server, "")
}

// TextOr 字符串字段，缺失时取 def
func TextOr(client, server, def string) Field {
	return Field{Client: client, Server: server, Decode: decodeText(def), Encode: encodeAny}
}

// Clock 时刻字段 HH:mm，后端返回 HH:mm:ss 时截掉秒
func Clock(client, server string) Field {
	return Field{
		Client: client,
		Server: server,
		Decode: func(v interface{}, ok bool) interface{} {
			s := decodeText("")(v, ok).(string)
			if len(s) == 8 && s[2] == ':' && s[5] == ':' {
				return s[:5]
			}
			return s
		},
		Encode: encodeAny,
	}
}

// Ref 外键字段：后端数字ID <-> 客户端不透明字符串；编码时不是十进制整数则不写入
func Ref(client, server string) Field {
	return Field{Client: client, Server: server, Decode: decodeID, Encode: encodeRef}
}

// Int 整数字段，缺失为 0
func Int(client, server string) Field {
	return IntOr(client, server, 0)
}

// IntOr 整数字段，缺失取 def
func IntOr(client, server string, def int64) Field {
	return Field{
		Client: client,
		Server: server,
		Decode: func(v interface{}, ok bool) interface{} {
			if f, fine := toFloat(v); ok && fine {
				return int64(math.Round(f))
			}
			return def
		},
		Encode: encodeInt,
	}
}

// Float 数值字段，缺失为 0
func Float(client, server string) Field {
	return Field{
		Client: client,
		Server: server,
		Decode: func(v interface{}, ok bool) interface{} {
			if f, fine := toFloat(v); ok && fine {
				return f
			}
			return float64(0)
		},
		Encode: encodeFloat,
	}
}

// Flag 0/1 启用标志，缺失时为 true
// 后端省略该列时实体按启用处理，调用方据此放行；这是沿用的既有行为
func Flag(client, server string) Field {
	return FlagOr(client, server, true)
}

// FlagOr 0/1 标志，缺失取 def
func FlagOr(client, server string, def bool) Field {
	return Field{
		Client: client,
		Server: server,
		Decode: func(v interface{}, ok bool) interface{} {
			if !ok {
				return def
			}
			if b, fine := toBool(v); fine {
				return b
			}
			return def
		},
		Encode: encodeFlag,
	}
}

// Derived 由状态字符串推导的布尔值，只解码
// 状态落在 deny 中为 false，其余（含未知状态与缺失）为 true
func Derived(client, server string, deny []string) Field {
	set := make(map[string]struct{}, len(deny))
	for _, s := range deny {
		set[s] = struct{}{}
	}
	return Field{
		Client: client,
		Server: server,
		Decode: func(v interface{}, ok bool) interface{} {
			s, isStr := v.(string)
			if !ok || !isStr {
				return true
			}
			_, denied := set[s]
			return !denied
		},
	}
}

// List 有序子记录列表，缺失或非数组时为空列表
func List(client, server string, sub mapper) Field {
	return Field{
		Client: client,
		Server: server,
		Decode: func(v interface{}, ok bool) interface{} {
			items, _ := v.([]interface{})
			out := make([]interface{}, 0, len(items))
			for _, it := range items {
				out = append(out, sub.decodeMap(asRecord(it)))
			}
			return out
		},
		Encode: func(v interface{}) (interface{}, bool) {
			patches, ok := toPatches(v)
			if !ok {
				return nil, false
			}
			out := make([]Record, 0, len(patches))
			for _, p := range patches {
				out = append(out, sub.encodeMap(p, false))
			}
			return out, true
		},
	}
}

// Object 嵌套的单个关联记录，只解码；缺失时为 nil
func Object(client, server string, sub mapper) Field {
	return Field{
		Client: client,
		Server: server,
		Decode: func(v interface{}, ok bool) interface{} {
			m, isMap := v.(map[string]interface{})
			if !ok || !isMap {
				return nil
			}
			return sub.decodeMap(Record(m))
		},
	}
}

// ============================================================
// 值转换
// ============================================================

func decodeText(def string) DecodeFunc {
	return func(v interface{}, ok bool) interface{} {
		if !ok {
			return def
		}
		switch s := v.(type) {
		case string:
			return s
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case json.Number:
			return s.String()
		case bool:
			return strconv.FormatBool(s)
		}
		return def
	}
}

func decodeID(v interface{}, ok bool) interface{} {
	return decodeText("")(v, ok)
}

func encodeAny(v interface{}) (interface{}, bool) {
	return v, true
}

// encodeInt 十进制解析后取整；解析失败（含空字符串）或越界时不写入
func encodeInt(v interface{}) (interface{}, bool) {
	f, ok := toFloat(v)
	if !ok || math.Abs(f) > 1<<53 {
		return nil, false
	}
	return int64(math.Round(f)), true
}

// encodeRef 外键只接受整数：字符串按 ParseInt 解析，小数与越界值不写入
func encodeRef(v interface{}) (interface{}, bool) {
	switch n := v.(type) {
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return nil, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return nil, false
		}
		return int64(n), true
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil, false
	}
	return int64(f), true
}

func encodeFloat(v interface{}) (interface{}, bool) {
	f, ok := toFloat(v)
	if !ok {
		return nil, false
	}
	return f, true
}

func encodeFlag(v interface{}) (interface{}, bool) {
	b, ok := toBool(v)
	if !ok {
		return nil, false
	}
	if b {
		return 1, true
	}
	return 0, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	if f, ok := toFloat(v); ok {
		return f != 0, true
	}
	return false, false
}

// toPatches 接受 []Patch、[]map 或结构体切片
func toPatches(v interface{}) ([]Patch, bool) {
	switch items := v.(type) {
	case nil:
		return nil, false
	case []Patch:
		return items, true
	case []map[string]interface{}:
		out := make([]Patch, 0, len(items))
		for _, it := range items {
			out = append(out, Patch(it))
		}
		return out, true
	case []interface{}:
		out := make([]Patch, 0, len(items))
		for _, it := range items {
			out = append(out, PatchOf(it))
		}
		return out, true
	}
	rv := reflectSlice(v)
	if rv == nil {
		return nil, false
	}
	out := make([]Patch, 0, len(rv))
	for _, it := range rv {
		out = append(out, PatchOf(it))
	}
	return out, true
}
