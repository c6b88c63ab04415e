package ocr

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/getcharzp/onnxruntime_purego"
	"github.com/up-zero/gotool/convertutil"
	"github.com/up-zero/gotool/imageutil"
	xdraw "golang.org/x/image/draw"

	"github.com/getcharzp/go-paddleocr/internal/detect"
	"github.com/getcharzp/go-paddleocr/internal/geometry"
	"github.com/getcharzp/go-paddleocr/internal/onnx"
	"github.com/getcharzp/go-paddleocr/internal/paragraph"
	"github.com/getcharzp/go-paddleocr/internal/recognize"
	"github.com/getcharzp/go-paddleocr/internal/util"
)

const (
	detLimitSideLen = 960 // 检测输入长边上限, 并对齐到 32 的倍数
	recInputHeight  = 48  // 识别输入高度 (PP-OCRv4)
	recMinWidth     = 8
)

// 检测输入的 ImageNet 归一化参数
var (
	detMean = [3]float32{0.485, 0.456, 0.406}
	detStd  = [3]float32{0.229, 0.224, 0.225}
)

// ctcIgnored CTC 解码时恒定忽略的类别 (0 为 blank)
var ctcIgnored = map[int]struct{}{0: {}}

// PaddleOcrEngine Paddle OCR 引擎
type PaddleOcrEngine struct {
	detSession *ort.Session
	recSession *ort.Session
	dict       []string
	cfg        Config

	mu       sync.Mutex // 保护 grouping
	grouping GroupingConfig
}

// NewPaddleOcrEngine 初始化引擎
//
// 配置非法 (不支持的语言、缺失的模型路径) 在任何推理前直接报错。
func NewPaddleOcrEngine(cfg Config) (*PaddleOcrEngine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.OnnxRuntimeLibPath == "" {
		cfg.OnnxRuntimeLibPath = DefaultLibraryPath()
	}

	oc := new(onnx.Config)
	_ = convertutil.CopyProperties(cfg, oc)
	if err := oc.New(); err != nil {
		return nil, err
	}

	detSession, err := oc.OnnxEngine.NewSession(cfg.DetModelPath, oc.SessionOptions)
	if err != nil {
		return nil, fmt.Errorf("创建检测会话失败: %w", err)
	}
	recSession, err := oc.OnnxEngine.NewSession(cfg.RecModelPath, oc.SessionOptions)
	if err != nil {
		return nil, fmt.Errorf("创建识别会话失败: %w", err)
	}

	dict, err := util.LoadDict(cfg.DictPath)
	if err != nil {
		return nil, fmt.Errorf("加载字符集失败: %w", err)
	}
	if !cfg.DisableSpaceChar {
		dict = append(dict, " ")
	}

	return &PaddleOcrEngine{
		detSession: detSession,
		recSession: recSession,
		dict:       dict,
		cfg:        cfg,
		grouping:   DefaultGroupingConfig(),
	}, nil
}

// GroupingConfig 读取当前段落分组参数 (拷贝)
func (e *PaddleOcrEngine) GroupingConfig() GroupingConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grouping
}

// SetGroupingConfig 更新段落分组参数, 可在运行期并发调用;
// 进行中的 Detect 调用继续使用其开始时的快照
func (e *PaddleOcrEngine) SetGroupingConfig(cfg GroupingConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grouping = cfg
}

// Detect 对整张图执行检测 + 识别, 可选段落分组
func (e *PaddleOcrEngine) Detect(img image.Image, opts DetectOptions) (*Result, error) {
	crops, err := e.detectCrops(img)
	if err != nil {
		return nil, err
	}

	elements, err := e.recognizeCrops(crops)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TotalElements: len(elements),
		Data:          elements,
	}
	if opts.Paragraph {
		paragraphs := groupParagraphs(elements, e.GroupingConfig())
		total := len(paragraphs)
		result.TotalParagraphs = &total
		result.Paragraphs = paragraphs
	}
	return result, nil
}

// RunDetect 只执行检测, 返回源图坐标下的文本框
func (e *PaddleOcrEngine) RunDetect(img image.Image) ([]TextBox, error) {
	crops, err := e.detectCrops(img)
	if err != nil {
		return nil, err
	}
	boxes := make([]TextBox, 0, len(crops))
	for _, crop := range crops {
		boxes = append(boxes, toTextBox(crop.Polygon))
	}
	return boxes, nil
}

// RunRecognize 对源图中单个文本框做矫正与识别
func (e *PaddleOcrEngine) RunRecognize(img image.Image, box TextBox) (*RecognizeResult, error) {
	crop := detect.Rectify(imaging.Clone(img), toPolygon(box))
	if crop == nil {
		return nil, fmt.Errorf("无效的文本框: %v", box.Points)
	}
	res, err := e.recognizeCrop(crop.Image)
	if err != nil {
		return nil, err
	}
	return &RecognizeResult{Text: res.Text, Confidence: res.Confidence}, nil
}

// Destroy 释放推理会话
func (e *PaddleOcrEngine) Destroy() {
	if e.detSession != nil {
		e.detSession.Destroy()
	}
	if e.recSession != nil {
		e.recSession.Destroy()
	}
}

// detectCrops 检测推理 + 区域提取
func (e *PaddleOcrEngine) detectCrops(img image.Image) ([]detect.LineCrop, error) {
	data, mapW, mapH := e.preprocessDet(img)

	output, err := e.run(e.detSession, []int64{1, 3, int64(mapH), int64(mapW)}, data)
	if err != nil {
		return nil, fmt.Errorf("检测推理失败: %w", err)
	}
	return detect.ExtractRegions(output, mapW, mapH, img, e.cfg.detectConfig()), nil
}

// recognizeCrops 并发识别所有文本行, 结果按检测顺序回填,
// 再按置信度过滤并丢弃空文本
func (e *PaddleOcrEngine) recognizeCrops(crops []detect.LineCrop) ([]TextElement, error) {
	results := make([]recognize.Result, len(crops))
	errs := make([]error, len(crops))

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	// 结果通过下标回填, 与完成顺序无关, 保证文本与多边形的对应关系
	for i := range crops {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = e.recognizeCrop(crops[i].Image)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	threshold := e.cfg.confidenceThreshold()
	elements := make([]TextElement, 0, len(crops))
	for i, res := range results {
		if res.Text == "" || res.Confidence < threshold {
			continue
		}
		elements = append(elements, newTextElement(res, crops[i].Polygon))
	}
	return elements, nil
}

// recognizeCrop 单行识别: 预处理、推理、CTC 解码
func (e *PaddleOcrEngine) recognizeCrop(img *image.NRGBA) (recognize.Result, error) {
	data, shape := e.preprocessRec(img)

	output, err := e.run(e.recSession, shape, data)
	if err != nil {
		return recognize.Result{}, fmt.Errorf("识别推理失败: %w", err)
	}

	// 类别数 = 字典长度 + blank
	return recognize.Decode(output, len(e.dict)+1, e.dict, ctcIgnored, true), nil
}

// run 执行一次推理并拷贝输出张量 (det 与 rec 模型均为单输入 x、单输出)
func (e *PaddleOcrEngine) run(session *ort.Session, shape []int64, data []float32) ([]float32, error) {
	inputTensor, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, err
	}
	defer inputTensor.Destroy()

	inputValues := map[string]*ort.Value{
		"x": inputTensor,
	}
	outputValues, err := session.Run(inputValues)
	if err != nil {
		return nil, err
	}

	var output []float32
	for _, value := range outputValues {
		tensorData, err := ort.GetTensorData[float32](value)
		if err != nil {
			value.Destroy()
			return nil, fmt.Errorf("获取输出数据失败: %w", err)
		}
		output = append([]float32(nil), tensorData...)
		value.Destroy()
		break
	}
	if output == nil {
		return nil, fmt.Errorf("推理无输出")
	}
	return output, nil
}

// preprocessDet 检测预处理: 长边限制在 960 内、宽高对齐到 32 的
// 倍数后等比例缩放, ImageNet 均值方差归一化, NCHW 排列
func (e *PaddleOcrEngine) preprocessDet(img image.Image) (data []float32, mapW, mapH int) {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	ratio := 1.0
	if longSide := max(srcW, srcH); longSide > detLimitSideLen {
		ratio = float64(detLimitSideLen) / float64(longSide)
	}
	mapW = roundTo32(float64(srcW) * ratio)
	mapH = roundTo32(float64(srcH) * ratio)

	resized := imageutil.Resize(img, mapW, mapH)

	area := mapW * mapH
	data = make([]float32, 3*area)
	for y := 0; y < mapH; y++ {
		for x := 0; x < mapW; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			data[0*area+y*mapW+x] = (float32(r>>8)/255.0 - detMean[0]) / detStd[0]
			data[1*area+y*mapW+x] = (float32(g>>8)/255.0 - detMean[1]) / detStd[1]
			data[2*area+y*mapW+x] = (float32(b>>8)/255.0 - detMean[2]) / detStd[2]
		}
	}
	return data, mapW, mapH
}

// preprocessRec 识别预处理: 高度缩放到 48、宽度等比例,
// 归一化到 [-1, 1], NCHW 排列
func (e *PaddleOcrEngine) preprocessRec(img *image.NRGBA) ([]float32, []int64) {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	targetW := recMinWidth
	if srcH > 0 {
		if w := int(math.Round(float64(srcW) * recInputHeight / float64(srcH))); w > targetW {
			targetW = w
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, targetW, recInputHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	area := recInputHeight * targetW
	data := make([]float32, 3*area)
	for y := 0; y < recInputHeight; y++ {
		for x := 0; x < targetW; x++ {
			off := dst.PixOffset(x, y)
			data[0*area+y*targetW+x] = float32(dst.Pix[off])/127.5 - 1
			data[1*area+y*targetW+x] = float32(dst.Pix[off+1])/127.5 - 1
			data[2*area+y*targetW+x] = float32(dst.Pix[off+2])/127.5 - 1
		}
	}
	return data, []int64{1, 3, recInputHeight, int64(targetW)}
}

func roundTo32(v float64) int {
	n := int(math.Round(v/32)) * 32
	if n < 32 {
		return 32
	}
	return n
}

func toTextBox(p geometry.Polygon) TextBox {
	var box TextBox
	for i, pt := range p {
		box.Points[i] = [2]float64{pt.X, pt.Y}
	}
	return box
}

func toPolygon(box TextBox) geometry.Polygon {
	var p geometry.Polygon
	for i, pt := range box.Points {
		p[i] = geometry.Point{X: pt[0], Y: pt[1]}
	}
	return p
}

// newTextElement 把解码结果与其来源四边形组合成文本元素
func newTextElement(res recognize.Result, poly geometry.Polygon) TextElement {
	bounds := poly.Bounds()
	var elem TextElement
	elem.Text = res.Text
	elem.Confidence = res.Confidence
	elem.Frame = Frame{Left: bounds.Left, Top: bounds.Top, Width: bounds.Width, Height: bounds.Height}
	for i, pt := range poly {
		elem.Polygon[i] = [2]float64{pt.X, pt.Y}
	}
	return elem
}

// groupParagraphs 对过滤后的文本元素做段落分组
func groupParagraphs(elements []TextElement, cfg GroupingConfig) []Paragraph {
	input := make([]paragraph.Element, 0, len(elements))
	for _, e := range elements {
		input = append(input, paragraph.Element{
			Text:       e.Text,
			Confidence: e.Confidence,
			Frame: geometry.Box{
				Left:   e.Frame.Left,
				Top:    e.Frame.Top,
				Width:  e.Frame.Width,
				Height: e.Frame.Height,
			},
			Polygon: toPolygon(TextBox{Points: e.Polygon}),
		})
	}

	grouped := paragraph.Group(input, paragraph.Config(cfg))
	paragraphs := make([]Paragraph, 0, len(grouped))
	for _, g := range grouped {
		members := make([]TextElement, 0, len(g.Elements))
		for _, m := range g.Elements {
			members = append(members, newTextElement(
				recognize.Result{Text: m.Text, Confidence: m.Confidence}, m.Polygon))
		}
		paragraphs = append(paragraphs, Paragraph{
			Text:       g.Text,
			Confidence: g.Confidence,
			BoundingBox: Frame{
				Left:   g.BoundingBox.Left,
				Top:    g.BoundingBox.Top,
				Width:  g.BoundingBox.Width,
				Height: g.BoundingBox.Height,
			},
			Elements: members,
		})
	}
	return paragraphs
}
