package ocr

import (
	"encoding/json"
	"image"
	"strings"
	"sync"
	"testing"
)

func TestNewPaddleOcrEngineFailFast(t *testing.T) {
	base := Config{
		DetModelPath: "det.onnx",
		RecModelPath: "rec.onnx",
		DictPath:     "dict.txt",
	}

	// 配置错误在任何推理调用之前返回
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"不支持的语言", func(c *Config) { c.Language = "klingon" }, "不支持的语言标识"},
		{"缺检测模型", func(c *Config) { c.DetModelPath = "" }, "检测模型路径"},
		{"缺识别模型", func(c *Config) { c.RecModelPath = "" }, "识别模型路径"},
		{"缺字典", func(c *Config) { c.DictPath = "" }, "字典文件路径"},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		_, err := NewPaddleOcrEngine(cfg)
		if err == nil {
			t.Errorf("%s: 期望报错", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: 错误信息 %q 不含 %q", tc.name, err.Error(), tc.want)
		}
	}
}

func TestGroupingConfigCopySemantics(t *testing.T) {
	e := &PaddleOcrEngine{grouping: DefaultGroupingConfig()}

	// 读到的是拷贝, 修改返回值不影响引擎内部配置
	cfg := e.GroupingConfig()
	cfg.HorizontalGapRatio = 99
	if got := e.GroupingConfig(); got != DefaultGroupingConfig() {
		t.Fatalf("返回值被修改后引擎配置不应变化: %+v", got)
	}

	updated := DefaultGroupingConfig()
	updated.VerticalGapRatio = 0.01
	e.SetGroupingConfig(updated)
	if got := e.GroupingConfig(); got != updated {
		t.Fatalf("更新后读取错误: %+v", got)
	}
}

func TestGroupingConfigSnapshotUnaffectedByUpdate(t *testing.T) {
	e := &PaddleOcrEngine{grouping: DefaultGroupingConfig()}
	elements := []TextElement{
		{
			Text:       "line one",
			Confidence: 0.9,
			Frame:      Frame{Left: 0, Top: 0, Width: 100, Height: 20},
			Polygon:    [4][2]float64{{0, 0}, {100, 0}, {100, 20}, {0, 20}},
		},
		{
			Text:       "line two",
			Confidence: 0.9,
			Frame:      Frame{Left: 0, Top: 22, Width: 100, Height: 20},
			Polygon:    [4][2]float64{{0, 22}, {100, 22}, {100, 42}, {0, 42}},
		},
	}

	// 调用开始时的快照在处理期间保持有效, 不受后续更新影响
	snapshot := e.GroupingConfig()

	strict := DefaultGroupingConfig()
	strict.VerticalGapRatio = 0.01
	e.SetGroupingConfig(strict)

	if got := groupParagraphs(elements, snapshot); len(got) != 1 {
		t.Fatalf("快照应按旧参数合并为 1 个段落, got %d", len(got))
	}
	if got := groupParagraphs(elements, e.GroupingConfig()); len(got) != 2 {
		t.Fatalf("新配置不应再合并, got %d 个段落", len(got))
	}
}

func TestGroupingConfigConcurrentAccess(t *testing.T) {
	e := &PaddleOcrEngine{grouping: DefaultGroupingConfig()}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := DefaultGroupingConfig()
			cfg.HorizontalGapRatio = float64(i + 1)
			for j := 0; j < 100; j++ {
				e.SetGroupingConfig(cfg)
				got := e.GroupingConfig()
				// 任何时刻读到的都是某次完整写入, 不会出现撕裂值
				if got.HorizontalGapRatio < 1 || got.HorizontalGapRatio > 8 {
					t.Errorf("读到撕裂的配置: %+v", got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestSupportedLanguages(t *testing.T) {
	langs := SupportedLanguages()
	if len(langs) == 0 {
		t.Fatal("语言列表为空")
	}
	found := false
	for i, l := range langs {
		if l == "ch" {
			found = true
		}
		if i > 0 && langs[i-1] >= l {
			t.Fatalf("语言列表应按字典序且无重复: %v", langs)
		}
	}
	if !found {
		t.Error("语言列表应包含 ch")
	}
}

func TestResultJSONShape(t *testing.T) {
	elem := TextElement{
		Text:       "hello",
		Confidence: 0.92,
		Frame:      Frame{Left: 1, Top: 2, Width: 30, Height: 10},
		Polygon:    [4][2]float64{{1, 2}, {31, 2}, {31, 12}, {1, 12}},
	}
	total := 1
	result := Result{
		TotalElements:   1,
		Data:            []TextElement{elem},
		TotalParagraphs: &total,
		Paragraphs: []Paragraph{{
			Text:        "hello",
			Confidence:  0.92,
			BoundingBox: elem.Frame,
			Elements:    []TextElement{elem},
		}},
	}

	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	// 下游按字段名消费, 不能改
	for _, key := range []string{
		`"totalElements"`, `"data"`, `"totalParagraphs"`, `"paragraphs"`,
		`"text"`, `"confidence"`, `"frame"`, `"polygon"`,
		`"left"`, `"top"`, `"width"`, `"height"`, `"boundingBox"`, `"elements"`,
	} {
		if !strings.Contains(string(payload), key) {
			t.Errorf("载荷缺少字段 %s: %s", key, payload)
		}
	}
}

func TestResultJSONEmptyWithGrouping(t *testing.T) {
	total := 0
	result := Result{
		TotalElements:   0,
		Data:            []TextElement{},
		TotalParagraphs: &total,
	}
	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	s := string(payload)
	if !strings.Contains(s, `"totalElements":0`) || !strings.Contains(s, `"totalParagraphs":0`) {
		t.Errorf("空结果载荷错误: %s", s)
	}
	if !strings.Contains(s, `"data":[]`) {
		t.Errorf("data 应为空数组而非 null: %s", s)
	}
}

func TestResultJSONWithoutGrouping(t *testing.T) {
	result := Result{TotalElements: 0, Data: []TextElement{}}
	payload, _ := json.Marshal(result)
	if strings.Contains(string(payload), "totalParagraphs") {
		t.Errorf("未请求分组时不应出现 totalParagraphs: %s", payload)
	}
}

func TestGroupParagraphs(t *testing.T) {
	elements := []TextElement{
		{
			Text:       "line one",
			Confidence: 0.9,
			Frame:      Frame{Left: 0, Top: 0, Width: 100, Height: 20},
			Polygon:    [4][2]float64{{0, 0}, {100, 0}, {100, 20}, {0, 20}},
		},
		{
			Text:       "line two",
			Confidence: 0.7,
			Frame:      Frame{Left: 0, Top: 22, Width: 100, Height: 20},
			Polygon:    [4][2]float64{{0, 22}, {100, 22}, {100, 42}, {0, 42}},
		},
	}

	got := groupParagraphs(elements, DefaultGroupingConfig())
	if len(got) != 1 {
		t.Fatalf("期望 1 个段落, got %d", len(got))
	}
	p := got[0]
	if p.Text != "line one line two" {
		t.Errorf("段落文本错误: %q", p.Text)
	}
	if len(p.Elements) != 2 {
		t.Errorf("成员数量错误: %d", len(p.Elements))
	}
	if p.BoundingBox != (Frame{Left: 0, Top: 0, Width: 100, Height: 42}) {
		t.Errorf("包围盒错误: %+v", p.BoundingBox)
	}
	if diff := p.Confidence - 0.8; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("置信度应为平均值: %v", p.Confidence)
	}
}

func TestDrawBoxes(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	boxes := []TextBox{
		{Points: [4][2]float64{{5, 5}, {40, 5}, {40, 20}, {5, 20}}},
	}
	out := DrawBoxes(img, boxes)
	if out.Bounds() != img.Bounds() {
		t.Fatalf("画布尺寸改变: %v", out.Bounds())
	}
	// 框线应落在画布上
	nrgba := out.(*image.NRGBA)
	r, _, _, _ := nrgba.At(5, 5).RGBA()
	if r == 0 {
		t.Error("检测框未绘制")
	}
}
