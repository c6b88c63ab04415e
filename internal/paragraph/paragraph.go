// Package paragraph 依据空间邻接关系把独立识别的文本行合并为段落。
package paragraph

import (
	"math"
	"sort"
	"strings"

	"github.com/getcharzp/go-paddleocr/internal/geometry"
)

// Element 参与分组的文本元素
type Element struct {
	Text       string
	Confidence float64
	Frame      geometry.Box
	Polygon    geometry.Polygon
}

// Paragraph 分组结果: 成员按阅读顺序排列
type Paragraph struct {
	Text        string
	Confidence  float64
	BoundingBox geometry.Box
	Elements    []Element
}

// Config 分组灵敏度, 四个比例均以元素平均高度为单位
type Config struct {
	VerticalGapRatio       float64 // 换行合并的最大行心垂直间距
	HorizontalGapRatio     float64 // 同行合并的最大中心水平间距
	MinOverlapRatio        float64 // 判定同行的最小垂直重叠比
	MaxVerticalOffsetRatio float64 // 判定同行的最大行心垂直偏移
}

// DefaultConfig 默认分组参数
func DefaultConfig() Config {
	return Config{
		VerticalGapRatio:       1.5,
		HorizontalGapRatio:     4,
		MinOverlapRatio:        0.5,
		MaxVerticalOffsetRatio: 0.3,
	}
}

// 规范阅读顺序排序用的同行判定阈值 (平均高度的倍数)
const sortRowRatio = 0.5

// Group 把文本元素按空间邻接关系划分为段落
//
// 每个输入元素恰好归属一个段落, 孤立元素自成单元素段落。
// 元素先按规范阅读顺序 (自上而下, 同行内自左向右) 排序, 再做
// 不动点扫描: 只要还有未分组元素与当前组任一成员邻接就并入,
// 直到一轮扫描无新增为止。输入与参数相同时输出恒定。
func Group(elements []Element, cfg Config) []Paragraph {
	if len(elements) == 0 {
		return nil
	}

	avgHeight := 0.0
	for _, e := range elements {
		avgHeight += e.Frame.Height
	}
	avgHeight /= float64(len(elements))

	sorted := make([]Element, len(elements))
	copy(sorted, elements)
	sortReadingOrder(sorted, avgHeight)

	used := make([]bool, len(sorted))
	var paragraphs []Paragraph

	for i := range sorted {
		if used[i] {
			continue
		}
		group := []int{i}
		used[i] = true

		for changed := true; changed; {
			changed = false
			for j := range sorted {
				if used[j] {
					continue
				}
				for _, member := range group {
					if shouldGroup(sorted[member], sorted[j], avgHeight, cfg) {
						group = append(group, j)
						used[j] = true
						changed = true
						break
					}
				}
			}
		}

		// 组内成员按规范顺序重排后拼接
		sort.Ints(group)
		members := make([]Element, 0, len(group))
		for _, idx := range group {
			members = append(members, sorted[idx])
		}
		paragraphs = append(paragraphs, assemble(members))
	}
	return paragraphs
}

// sortReadingOrder 规范阅读顺序: 按 top 排序, 行心垂直距离小于
// avgHeight*0.5 的视为同一行, 同行内按 left 排序
func sortReadingOrder(elements []Element, avgHeight float64) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i], elements[j]
		if math.Abs(a.Frame.CenterY()-b.Frame.CenterY()) < avgHeight*sortRowRatio {
			return a.Frame.Left < b.Frame.Left
		}
		return a.Frame.Top < b.Frame.Top
	})
}

// shouldGroup 有向邻接判定: 只向右、向下寻找后继, 避免同一对元素
// 被重复检验, 合并顺序由规范排序唯一确定
func shouldGroup(a, b Element, avgHeight float64, cfg Config) bool {
	fa, fb := a.Frame, b.Frame

	overlap := math.Min(fa.Bottom(), fb.Bottom()) - math.Max(fa.Top, fb.Top)
	minHeight := math.Min(fa.Height, fb.Height)
	overlapRatio := 0.0
	if minHeight > 0 {
		overlapRatio = overlap / minHeight
	}
	centerOffset := math.Abs(fa.CenterY() - fb.CenterY())

	sameLine := overlapRatio >= cfg.MinOverlapRatio ||
		centerOffset < avgHeight*cfg.MaxVerticalOffsetRatio

	if sameLine {
		if fb.Left <= fa.Left {
			return false
		}
		return math.Abs(fb.CenterX()-fa.CenterX()) < avgHeight*cfg.HorizontalGapRatio
	}

	if fb.Top <= fa.Top {
		return false
	}
	if fb.CenterY()-fa.CenterY() >= avgHeight*cfg.VerticalGapRatio {
		return false
	}
	// 上下相邻还要求水平跨度有正向重叠
	return math.Min(fa.Right(), fb.Right())-math.Max(fa.Left, fb.Left) > 0
}

// assemble 由一组成员构造段落: 文本以空格连接, 置信度取平均,
// 包围盒为成员外接矩形的最小包络
func assemble(members []Element) Paragraph {
	texts := make([]string, 0, len(members))
	confidence := 0.0
	box := members[0].Frame
	for _, m := range members {
		texts = append(texts, m.Text)
		confidence += m.Confidence
		box = geometry.Union(box, m.Frame)
	}
	return Paragraph{
		Text:        strings.Join(texts, " "),
		Confidence:  confidence / float64(len(members)),
		BoundingBox: box,
		Elements:    members,
	}
}
