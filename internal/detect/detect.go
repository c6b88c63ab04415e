// Package detect 将检测模型输出的概率图还原为矫正后的文本行图像。
package detect

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/getcharzp/go-paddleocr/internal/geometry"
)

// Config 区域提取配置
type Config struct {
	Threshold   float64 // 概率图二值化阈值
	UnclipRatio float64 // 文本框外扩系数
	MinBoxSize  float64 // 最小文本框短边 (概率图坐标)
	MaxBoxSize  float64 // 最大文本框短边 (概率图坐标)
	Workers     int     // 透视矫正并发数, <=0 表示按 CPU 核数
}

// DefaultConfig DB 检测的常用默认值
func DefaultConfig() Config {
	return Config{
		Threshold:   0.3,
		UnclipRatio: 1.5,
		MinBoxSize:  3,
		MaxBoxSize:  2000,
	}
}

// LineCrop 一条文本行: 矫正后的正置图像及其源图坐标四边形
type LineCrop struct {
	Image   *image.NRGBA
	Polygon geometry.Polygon
}

// 竖排文本行判定: 高宽比达到该值时旋转 90°
const verticalRatio = 1.5

// ExtractRegions 从概率图中提取文本区域并矫正为正置图像
//
// probMap 为按行展开的 mapW x mapH 概率图, src 为未缩放的原始图像。
// 各尺寸、几何门限不满足的候选框直接跳过, 无检测结果返回空切片。
func ExtractRegions(probMap []float32, mapW, mapH int, src image.Image, cfg Config) []LineCrop {
	if mapW <= 0 || mapH <= 0 || len(probMap) < mapW*mapH {
		return nil
	}

	quads := candidateQuads(probMap, mapW, mapH, src, cfg)
	if len(quads) == 0 {
		return nil
	}

	srcImg := imaging.Clone(src)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan struct{}, workers)
	results := make([]*LineCrop, len(quads))

	var wg sync.WaitGroup
	for i, quad := range quads {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, quad geometry.Polygon) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = Rectify(srcImg, quad)
		}(i, quad)
	}
	wg.Wait()

	crops := make([]LineCrop, 0, len(quads))
	for _, r := range results {
		if r != nil {
			crops = append(crops, *r)
		}
	}
	return crops
}

// candidateQuads 概率图 -> 源图坐标下的候选四边形 (已排序为顺时针并裁剪到图内)
func candidateQuads(probMap []float32, mapW, mapH int, src image.Image, cfg Config) []geometry.Polygon {
	mask := make([]bool, mapW*mapH)
	for i, v := range probMap[:mapW*mapH] {
		mask[i] = float64(v) > cfg.Threshold
	}

	srcW := float64(src.Bounds().Dx())
	srcH := float64(src.Bounds().Dy())
	scaleX := srcW / float64(mapW)
	scaleY := srcH / float64(mapH)

	var quads []geometry.Polygon
	for _, contour := range traceContours(mask, mapW, mapH) {
		rect, sside := geometry.MinAreaRect(contour)
		if sside < cfg.MinBoxSize || sside > cfg.MaxBoxSize {
			continue
		}

		// 外扩前先排除退化多边形, 避免除零
		area := geometry.Area(rect[:])
		perimeter := geometry.Perimeter(rect[:])
		if area < 1e-6 || perimeter < 1e-6 {
			continue
		}
		d := area * cfg.UnclipRatio / perimeter
		expanded := geometry.OffsetPolygon(rect[:], d)
		rect, sside = geometry.MinAreaRect(expanded)
		if sside < cfg.MinBoxSize+2 {
			continue
		}

		for i := range rect {
			rect[i].X *= scaleX
			rect[i].Y *= scaleY
		}
		quad := geometry.OrderClockwise(rect).Clamp(srcW, srcH)

		if boxWidth(quad) <= 3 || boxHeight(quad) <= 3 {
			continue
		}
		quads = append(quads, quad)
	}
	return quads
}

func boxWidth(q geometry.Polygon) float64 {
	return math.Max(geometry.Dist(q[0], q[1]), geometry.Dist(q[2], q[3]))
}

func boxHeight(q geometry.Polygon) float64 {
	return math.Max(geometry.Dist(q[0], q[3]), geometry.Dist(q[1], q[2]))
}

// Rectify 将四边形区域透视矫正为正置图像, 竖排行再旋转 90°
func Rectify(src *image.NRGBA, quad geometry.Polygon) *LineCrop {
	w := int(boxWidth(quad))
	h := int(boxHeight(quad))
	if w <= 0 || h <= 0 {
		return nil
	}

	crop := geometry.PerspectiveCrop(src, quad, w, h)
	if crop == nil {
		return nil
	}
	if float64(h)/float64(w) >= verticalRatio {
		crop = imaging.Rotate90(crop)
	}
	return &LineCrop{Image: crop, Polygon: quad}
}

// traceContours 提取前景连通域的外边界点集 (8 连通)
//
// 按行优先顺序扫描种子点, 结果顺序对同一输入恒定。返回的每个点集
// 只含连通域的边界像素, 足以支撑最小外接矩形计算。
func traceContours(mask []bool, w, h int) [][]geometry.Point {
	labeled := make([]bool, len(mask))
	var contours [][]geometry.Point

	neighbors := [8][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}

	var queue []int
	for start := 0; start < len(mask); start++ {
		if !mask[start] || labeled[start] {
			continue
		}

		queue = queue[:0]
		queue = append(queue, start)
		labeled[start] = true
		var boundary []geometry.Point

		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			x := idx % w
			y := idx / w

			if isBoundary(mask, w, h, x, y) {
				boundary = append(boundary, geometry.Point{X: float64(x), Y: float64(y)})
			}

			for _, n := range neighbors {
				nx, ny := x+n[0], y+n[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if mask[ni] && !labeled[ni] {
					labeled[ni] = true
					queue = append(queue, ni)
				}
			}
		}

		if len(boundary) > 0 {
			contours = append(contours, boundary)
		}
	}
	return contours
}

// isBoundary 前景像素的 4 邻域中存在背景或图像边界即为边界像素
func isBoundary(mask []bool, w, h, x, y int) bool {
	if x == 0 || x == w-1 || y == 0 || y == h-1 {
		return true
	}
	return !mask[y*w+x-1] || !mask[y*w+x+1] || !mask[(y-1)*w+x] || !mask[(y+1)*w+x]
}
