package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// print 按 --output 输出；yaml 先经 json 转为通用结构，沿用实体的 json 字段名
func (a *app) print(v interface{}) error {
	if a.output == "yaml" {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("write yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readDocument 读取 json 或 yaml 文件并绑定到 out
func readDocument(path string, out interface{}) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return decodeDocument(data, out)
}

func decodeDocument(data []byte, out interface{}) error {
	// json 是 yaml 的子集，统一按 yaml 解析
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if generic == nil {
		return fmt.Errorf("empty document")
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("bind document: %w", err)
	}
	return nil
}
