// Package onnx 封装 onnxruntime 动态库的加载与会话配置。
package onnx

import (
	"fmt"

	ort "github.com/getcharzp/onnxruntime_purego"
)

// Config onnxruntime 初始化配置
type Config struct {
	OnnxRuntimeLibPath string

	OnnxEngine     *ort.Engine
	SessionOptions *ort.SessionOptions
}

// New 加载 onnxruntime 动态库并初始化会话配置
func (c *Config) New() error {
	if c.OnnxRuntimeLibPath == "" {
		return fmt.Errorf("onnxruntime 库路径不能为空")
	}

	engine, err := ort.NewEngine(c.OnnxRuntimeLibPath)
	if err != nil {
		return fmt.Errorf("加载 onnxruntime 库失败: %w", err)
	}

	options, err := engine.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("创建会话配置失败: %w", err)
	}

	c.OnnxEngine = engine
	c.SessionOptions = options
	return nil
}
