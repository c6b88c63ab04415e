package ocr

// Frame 源图坐标系下的轴对齐矩形
type Frame struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextBox 检测到的文本框, 四个角点按 [左上, 右上, 右下, 左下] 顺时针排列
type TextBox struct {
	Points [4][2]float64 `json:"points"`
}

// TextElement 识别出的单行文本及其几何信息
type TextElement struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Frame      Frame         `json:"frame"`
	Polygon    [4][2]float64 `json:"polygon"`
}

// Paragraph 按空间邻接合并出的段落
type Paragraph struct {
	Text        string        `json:"text"`
	Confidence  float64       `json:"confidence"`
	BoundingBox Frame         `json:"boundingBox"`
	Elements    []TextElement `json:"elements"`
}

// RecognizeResult 单行识别结果
type RecognizeResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Result 一次检测调用的完整结果
//
// totalParagraphs 与 paragraphs 仅在请求段落分组时出现。
type Result struct {
	TotalElements   int           `json:"totalElements"`
	Data            []TextElement `json:"data"`
	TotalParagraphs *int          `json:"totalParagraphs,omitempty"`
	Paragraphs      []Paragraph   `json:"paragraphs,omitempty"`
}

// DetectOptions 单次检测调用的选项
type DetectOptions struct {
	Paragraph bool // 是否对结果做段落分组
}
