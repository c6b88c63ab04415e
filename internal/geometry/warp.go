package geometry

import (
	"image"
	"math"
)

// perspective 3x3 透视变换矩阵 (最后一个元素固定为 1)
type perspective [8]float64

// newPerspective 求解将 src 四点映射到 dst 四点的透视变换
//
// 8 个未知数由 4 对点的映射关系列出 8 元线性方程组, 高斯消元求解。
// 方程组奇异 (源点退化共线) 时返回 false。
func newPerspective(src, dst Polygon) (perspective, bool) {
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		m[i*2] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		m[i*2+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}

	// 列主元高斯消元
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-10 {
			return perspective{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := m[r][col] / m[col][col]
			for c := col; c < 9; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	var p perspective
	for i := 0; i < 8; i++ {
		p[i] = m[i][8] / m[i][i]
	}
	return p, true
}

// apply 对单个点应用透视变换
func (p perspective) apply(x, y float64) (float64, float64) {
	w := p[6]*x + p[7]*y + 1
	if w == 0 {
		return 0, 0
	}
	return (p[0]*x + p[1]*y + p[2]) / w, (p[3]*x + p[4]*y + p[5]) / w
}

// PerspectiveCrop 将源图中的四边形区域透视矫正为 w x h 的正置图像
//
// quad 按 [左上, 右上, 右下, 左下] 顺序。对目标图逐像素反向映射回源图,
// 双三次插值采样, 越界坐标按边缘像素复制处理。变换退化时返回 nil。
func PerspectiveCrop(src *image.NRGBA, quad Polygon, w, h int) *image.NRGBA {
	if w <= 0 || h <= 0 {
		return nil
	}
	dstQuad := Polygon{
		{0, 0},
		{float64(w), 0},
		{float64(w), float64(h)},
		{0, float64(h)},
	}
	// 反向映射: 目标坐标 -> 源坐标
	inv, ok := newPerspective(dstQuad, quad)
	if !ok {
		return nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := inv.apply(float64(x)+0.5, float64(y)+0.5)
			r, g, b, a := sampleBicubic(src, sx-0.5, sy-0.5)
			off := dst.PixOffset(x, y)
			dst.Pix[off] = r
			dst.Pix[off+1] = g
			dst.Pix[off+2] = b
			dst.Pix[off+3] = a
		}
	}
	return dst
}

// cubicWeight Catmull-Rom 三次卷积核 (a = -0.5)
func cubicWeight(t float64) float64 {
	t = math.Abs(t)
	switch {
	case t <= 1:
		return 1.5*t*t*t - 2.5*t*t + 1
	case t < 2:
		return -0.5*t*t*t + 2.5*t*t - 4*t + 2
	default:
		return 0
	}
}

// pixelAt 读取像素, 越界时复制最近的边缘像素
func pixelAt(img *image.NRGBA, x, y int) (uint8, uint8, uint8, uint8) {
	b := img.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	}
	if x > b.Max.X-1 {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}
	if y > b.Max.Y-1 {
		y = b.Max.Y - 1
	}
	off := img.PixOffset(x, y)
	return img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3]
}

// sampleBicubic 在浮点坐标处做 4x4 邻域双三次采样
func sampleBicubic(img *image.NRGBA, fx, fy float64) (uint8, uint8, uint8, uint8) {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))

	var sr, sg, sb, sa, sw float64
	for dy := -1; dy <= 2; dy++ {
		wy := cubicWeight(fy - float64(y0+dy))
		if wy == 0 {
			continue
		}
		for dx := -1; dx <= 2; dx++ {
			wx := cubicWeight(fx - float64(x0+dx))
			if wx == 0 {
				continue
			}
			r, g, b, a := pixelAt(img, x0+dx, y0+dy)
			w := wx * wy
			sr += float64(r) * w
			sg += float64(g) * w
			sb += float64(b) * w
			sa += float64(a) * w
			sw += w
		}
	}
	if sw == 0 {
		return 0, 0, 0, 0
	}
	clamp := func(v float64) uint8 {
		v /= sw
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v + 0.5)
	}
	return clamp(sr), clamp(sg), clamp(sb), clamp(sa)
}
