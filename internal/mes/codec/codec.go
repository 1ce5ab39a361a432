// Package codec 在后端持久化结构（Record）与客户端实体之间做双向字段映射。
//
// 每种实体声明一张 Field 表：客户端字段名、后端字段名、解码/编码转换、
// 别名与创建时的字面默认值。解码是全函数，缺失字段取稳定默认值；
// 编码只翻译 Patch 中出现的字段，不会用默认值覆盖后端已有数据。
package codec

import (
	"encoding/json"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Record 后端记录（JSON对象）
type Record map[string]interface{}

// Patch 部分客户端实体，键为客户端字段名
type Patch map[string]interface{}

// DecodeFunc 后端值 -> 客户端值，ok=false 表示后端缺失该字段
type DecodeFunc func(v interface{}, ok bool) interface{}

// EncodeFunc 客户端值 -> 后端值，返回 false 时该字段不写入 payload
type EncodeFunc func(v interface{}) (interface{}, bool)

// Field 单个字段的映射声明
type Field struct {
	Client  string
	Server  string
	Aliases []string    // 其它客户端字段名：解码时同时写入，编码时主字段为空才回退
	Decode  DecodeFunc  // nil 时原样透传
	Encode  EncodeFunc  // nil 时不参与编码（只读/派生字段）
	Default interface{} // 仅创建路径：主字段与别名都为空时写入的后端字面值

	OmitEmpty bool // 零值按缺失处理，不写入 payload
}

// Alias 声明客户端别名
func (f Field) Alias(names ...string) Field {
	f.Aliases = append(append([]string(nil), f.Aliases...), names...)
	return f
}

// WithDefault 声明创建时的字面默认值
func (f Field) WithDefault(v interface{}) Field {
	f.Default = v
	return f
}

// Optional 零值不写入 payload（日期等后端拒收空串的字段）
func (f Field) Optional() Field {
	f.OmitEmpty = true
	return f
}

// ReadOnly 只解码不编码
func (f Field) ReadOnly() Field {
	f.Encode = nil
	return f
}

// mapper 非泛型视图，供嵌套字段复用子实体的映射表
type mapper interface {
	decodeMap(r Record) map[string]interface{}
	encodeMap(p Patch, create bool) Record
}

// Codec 单个实体类型的编解码器
type Codec[T any] struct {
	name   string
	fields []Field
}

// New 由映射表创建编解码器
func New[T any](name string, fields ...Field) *Codec[T] {
	return &Codec[T]{name: name, fields: fields}
}

// Name 实体类型名
func (c *Codec[T]) Name() string {
	return c.name
}

// Fields 映射表副本
func (c *Codec[T]) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

// Decode 后端记录 -> 客户端实体，永不失败
func (c *Codec[T]) Decode(r Record) T {
	var out T
	// 转换函数已把值归一化为目标类型，这里的绑定错误只可能来自实体与映射表不一致，忽略后字段保持零值
	_ = bind(c.decodeMap(r), &out)
	return out
}

// DecodeJSON 解析单条响应；非对象 payload 按空记录解码
func (c *Codec[T]) DecodeJSON(data []byte) T {
	return c.Decode(ParseRecord(data))
}

// DecodeList 解析列表响应；非数组 payload 返回空切片
func (c *Codec[T]) DecodeList(data []byte) []T {
	records := ParseList(data)
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, c.Decode(r))
	}
	return out
}

// Encode 部分实体 -> 后端 payload，只包含 Patch 中出现的字段
func (c *Codec[T]) Encode(p Patch) Record {
	return c.encodeMap(p, false)
}

// EncodeNew 创建路径编码：在 Encode 基础上补齐声明的字面默认值
func (c *Codec[T]) EncodeNew(p Patch) Record {
	return c.encodeMap(p, true)
}

// EncodeEntity 完整实体编码，所有映射字段都视为出现
func (c *Codec[T]) EncodeEntity(e T) Record {
	return c.Encode(PatchOf(e))
}

func (c *Codec[T]) decodeMap(r Record) map[string]interface{} {
	out := make(map[string]interface{}, len(c.fields))
	for _, f := range c.fields {
		v, ok := r[f.Server]
		if ok && v == nil {
			ok = false
		}
		var cv interface{}
		if f.Decode != nil {
			cv = f.Decode(v, ok)
		} else if ok {
			cv = v
		}
		out[f.Client] = cv
		for _, a := range f.Aliases {
			out[a] = cv
		}
	}
	return out
}

func (c *Codec[T]) encodeMap(p Patch, create bool) Record {
	out := Record{}
	for _, f := range c.fields {
		if f.Encode == nil {
			continue
		}
		v, ok := resolve(p, f)
		if !ok {
			if create && f.Default != nil {
				out[f.Server] = f.Default
			}
			continue
		}
		if sv, keep := f.Encode(v); keep {
			out[f.Server] = sv
		}
	}
	return out
}

// resolve 取字段的客户端值
// 普通字段：出现即取（包括零值）；带别名、默认值或 OmitEmpty 的字段：零值视为缺失，依次回退到别名
func resolve(p Patch, f Field) (interface{}, bool) {
	v, ok := p[f.Client]
	if len(f.Aliases) == 0 && f.Default == nil && !f.OmitEmpty {
		return v, ok
	}
	if ok && !isZero(v) {
		return v, true
	}
	for _, a := range f.Aliases {
		if av, aok := p[a]; aok && !isZero(av) {
			return av, true
		}
	}
	return nil, false
}

func isZero(v interface{}) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

// ParseRecord 解析JSON对象；非对象返回空记录
func ParseRecord(data []byte) Record {
	var r map[string]interface{}
	if err := json.Unmarshal(data, &r); err != nil || r == nil {
		return Record{}
	}
	return Record(r)
}

// ParseList 解析JSON数组；非数组返回 nil，非对象元素按空记录处理
func ParseList(data []byte) []Record {
	var items []interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make([]Record, 0, len(items))
	for _, it := range items {
		out = append(out, asRecord(it))
	}
	return out
}

func asRecord(v interface{}) Record {
	switch m := v.(type) {
	case map[string]interface{}:
		return Record(m)
	case Record:
		return m
	}
	return Record{}
}

// PatchOf 将完整实体（或已是 map 的值）转换为 Patch
func PatchOf(v interface{}) Patch {
	switch p := v.(type) {
	case nil:
		return Patch{}
	case Patch:
		return p
	case map[string]interface{}:
		return Patch(p)
	}
	out := map[string]interface{}{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return Patch{}
	}
	if err := dec.Decode(v); err != nil {
		return Patch{}
	}
	return Patch(out)
}

// bind 将客户端字段 map 绑定到实体结构体
func bind(in map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func reflectSlice(v interface{}) []interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return nil
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
