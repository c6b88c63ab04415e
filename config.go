package ocr

import (
	"fmt"
	"sort"

	"github.com/getcharzp/go-paddleocr/internal/detect"
	"github.com/getcharzp/go-paddleocr/internal/paragraph"
)

// Config Paddle OCR 引擎配置
type Config struct {
	OnnxRuntimeLibPath string // 为空时按运行环境自动推断
	DetModelPath       string // 检测模型 det.onnx
	RecModelPath       string // 识别模型 rec.onnx
	DictPath           string // 字典文件, 每行一个字符, 顺序即索引
	Language           string // 语言标识, 为空表示不校验; 见 SupportedLanguages

	DisableSpaceChar bool // 默认在字典末尾追加空格类

	DetThreshold        float64 // 概率图二值化阈值, 默认 0.3
	UnclipRatio         float64 // 文本框外扩系数, 默认 1.5
	ConfidenceThreshold float64 // 识别结果过滤阈值, 默认 0.5
	Workers             int     // 矫正与识别的并发数, 默认 CPU 核数
}

// GroupingConfig 段落分组灵敏度, 四个比例均以元素平均高度为单位
type GroupingConfig struct {
	VerticalGapRatio       float64
	HorizontalGapRatio     float64
	MinOverlapRatio        float64
	MaxVerticalOffsetRatio float64
}

// DefaultGroupingConfig 默认分组参数
func DefaultGroupingConfig() GroupingConfig {
	return GroupingConfig(paragraph.DefaultConfig())
}

// supportedLanguages 可用的语言标识, 对应官方 PP-OCR 多语言模型
var supportedLanguages = map[string]struct{}{
	"ch":         {},
	"en":         {},
	"japan":      {},
	"korean":     {},
	"latin":      {},
	"arabic":     {},
	"cyrillic":   {},
	"devanagari": {},
}

// SupportedLanguages 返回全部可用的语言标识, 按字典序排列
func SupportedLanguages() []string {
	langs := make([]string, 0, len(supportedLanguages))
	for lang := range supportedLanguages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// validate 配置合法性校验, 在任何推理调用前快速失败
func (c Config) validate() error {
	if c.Language != "" {
		if _, ok := supportedLanguages[c.Language]; !ok {
			return fmt.Errorf("不支持的语言标识: %q", c.Language)
		}
	}
	if c.DetModelPath == "" {
		return fmt.Errorf("检测模型路径不能为空")
	}
	if c.RecModelPath == "" {
		return fmt.Errorf("识别模型路径不能为空")
	}
	if c.DictPath == "" {
		return fmt.Errorf("字典文件路径不能为空")
	}
	return nil
}

// detectConfig 带默认值的区域提取配置
func (c Config) detectConfig() detect.Config {
	dc := detect.DefaultConfig()
	if c.DetThreshold > 0 {
		dc.Threshold = c.DetThreshold
	}
	if c.UnclipRatio > 0 {
		dc.UnclipRatio = c.UnclipRatio
	}
	dc.Workers = c.Workers
	return dc
}

// confidenceThreshold 带默认值的识别过滤阈值
func (c Config) confidenceThreshold() float64 {
	if c.ConfidenceThreshold > 0 {
		return c.ConfidenceThreshold
	}
	return 0.5
}
