package geometry

import (
	"math"
	"sort"
)

// Point 二维坐标点 (图像坐标系, y 向下)
type Point struct {
	X float64
	Y float64
}

// Box 轴对齐矩形
type Box struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Polygon 四边形, 顺时针存储, 起点为最靠近左上角的点
type Polygon [4]Point

func (b Box) Right() float64   { return b.Left + b.Width }
func (b Box) Bottom() float64  { return b.Top + b.Height }
func (b Box) CenterX() float64 { return b.Left + b.Width/2 }
func (b Box) CenterY() float64 { return b.Top + b.Height/2 }

// Bounds 四边形的轴对齐外接矩形
func (p Polygon) Bounds() Box {
	minX, minY := p[0].X, p[0].Y
	maxX, maxY := p[0].X, p[0].Y
	for _, pt := range p[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Box{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}

// Dist 两点间欧氏距离
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Area 多边形面积 (鞋带公式, 取绝对值)
func Area(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter 多边形周长
func Perimeter(pts []Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += Dist(pts[i], pts[(i+1)%n])
	}
	return sum
}

// ConvexHull 凸包 (Andrew 单调链), 输入顺序无关, 结果确定
func ConvexHull(pts []Point) []Point {
	if len(pts) < 3 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}

	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var hull []Point
	// 下半链
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// 上半链
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// MinAreaRect 点集的最小面积外接矩形, 返回四个角点与短边长
//
// 旋转卡壳: 最小面积矩形必有一条边与凸包某条边共线, 逐边枚举即可。
// 退化输入 (点数不足、共线) 返回 sside 为 0 的退化矩形, 由调用方过滤。
func MinAreaRect(pts []Point) (Polygon, float64) {
	hull := ConvexHull(pts)

	if len(hull) == 0 {
		return Polygon{}, 0
	}
	if len(hull) < 3 {
		// 单点或两点: 宽或高为零的退化矩形
		a := hull[0]
		b := hull[len(hull)-1]
		return Polygon{a, b, b, a}, 0
	}

	bestArea := math.MaxFloat64
	var best Polygon
	bestSide := 0.0

	n := len(hull)
	for i := 0; i < n; i++ {
		p0 := hull[i]
		p1 := hull[(i+1)%n]
		edge := Dist(p0, p1)
		if edge == 0 {
			continue
		}
		// 以当前边方向为 u 轴的局部坐标系
		ux := (p1.X - p0.X) / edge
		uy := (p1.Y - p0.Y) / edge
		vx, vy := -uy, ux

		minU, maxU := math.MaxFloat64, -math.MaxFloat64
		minV, maxV := math.MaxFloat64, -math.MaxFloat64
		for _, p := range hull {
			du := (p.X-p0.X)*ux + (p.Y-p0.Y)*uy
			dv := (p.X-p0.X)*vx + (p.Y-p0.Y)*vy
			minU = math.Min(minU, du)
			maxU = math.Max(maxU, du)
			minV = math.Min(minV, dv)
			maxV = math.Max(maxV, dv)
		}

		w := maxU - minU
		h := maxV - minV
		area := w * h
		if area < bestArea {
			bestArea = area
			bestSide = math.Min(w, h)
			corner := func(du, dv float64) Point {
				return Point{
					X: p0.X + du*ux + dv*vx,
					Y: p0.Y + du*uy + dv*vy,
				}
			}
			best = Polygon{
				corner(minU, minV),
				corner(maxU, minV),
				corner(maxU, maxV),
				corner(minU, maxV),
			}
		}
	}
	return best, bestSide
}

// OffsetPolygon 将多边形整体向外偏移 d, 顶点处做圆角连接
//
// 每条边沿外法线平移 d, 相邻边的偏移端点之间按固定角步长插入圆弧
// 采样点。输入要求为凸多边形 (最小面积矩形满足), d <= 0 时原样返回。
func OffsetPolygon(pts []Point, d float64) []Point {
	n := len(pts)
	if n < 3 || d <= 0 {
		out := make([]Point, n)
		copy(out, pts)
		return out
	}

	cx, cy := 0.0, 0.0
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(n)
	cy /= float64(n)

	// 每条边的外法线 (指向远离质心一侧)
	normals := make([]Point, n)
	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		length := Dist(a, b)
		if length == 0 {
			normals[i] = Point{}
			continue
		}
		nx := (b.Y - a.Y) / length
		ny := -(b.X - a.X) / length
		midX := (a.X + b.X) / 2
		midY := (a.Y + b.Y) / 2
		if nx*(midX-cx)+ny*(midY-cy) < 0 {
			nx, ny = -nx, -ny
		}
		normals[i] = Point{X: nx, Y: ny}
	}

	const arcStep = math.Pi / 12 // 圆弧采样步长 15°

	var out []Point
	for i := 0; i < n; i++ {
		prev := normals[(i+n-1)%n]
		cur := normals[i]
		a := pts[i]
		b := pts[(i+1)%n]

		// 顶点 a 处: 从上一条边的法线方向转到当前边的法线方向
		a0 := math.Atan2(prev.Y, prev.X)
		a1 := math.Atan2(cur.Y, cur.X)
		sweep := a1 - a0
		for sweep <= -math.Pi {
			sweep += 2 * math.Pi
		}
		for sweep > math.Pi {
			sweep -= 2 * math.Pi
		}
		steps := int(math.Ceil(math.Abs(sweep) / arcStep))
		for s := 0; s <= steps; s++ {
			ang := a0 + sweep*float64(s)/math.Max(float64(steps), 1)
			out = append(out, Point{X: a.X + d*math.Cos(ang), Y: a.Y + d*math.Sin(ang)})
		}

		// 当前边两端的平移点
		out = append(out,
			Point{X: a.X + cur.X*d, Y: a.Y + cur.Y*d},
			Point{X: b.X + cur.X*d, Y: b.Y + cur.Y*d},
		)
	}
	return out
}

// OrderClockwise 将四个角点整理为 [左上, 右上, 右下, 左下] 的顺时针顺序
//
// x+y 最小的点为左上, 最大的为右下; 剩余两点按 y-x 区分右上与左下。
func OrderClockwise(p Polygon) Polygon {
	idx := []int{0, 1, 2, 3}
	sort.Slice(idx, func(i, j int) bool {
		si := p[idx[i]].X + p[idx[i]].Y
		sj := p[idx[j]].X + p[idx[j]].Y
		if si != sj {
			return si < sj
		}
		return p[idx[i]].X < p[idx[j]].X
	})

	tl := p[idx[0]]
	br := p[idx[3]]
	a := p[idx[1]]
	b := p[idx[2]]

	var tr, bl Point
	if a.Y-a.X <= b.Y-b.X {
		tr, bl = a, b
	} else {
		tr, bl = b, a
	}
	return Polygon{tl, tr, br, bl}
}

// Clamp 将四边形所有坐标限制在 [0, w] x [0, h] 内
func (p Polygon) Clamp(w, h float64) Polygon {
	var out Polygon
	for i, pt := range p {
		out[i] = Point{
			X: math.Min(math.Max(pt.X, 0), w),
			Y: math.Min(math.Max(pt.Y, 0), h),
		}
	}
	return out
}

// Union 两个矩形的最小包络
func Union(a, b Box) Box {
	left := math.Min(a.Left, b.Left)
	top := math.Min(a.Top, b.Top)
	right := math.Max(a.Right(), b.Right())
	bottom := math.Max(a.Bottom(), b.Bottom())
	return Box{Left: left, Top: top, Width: right - left, Height: bottom - top}
}
