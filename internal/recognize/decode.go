// Package recognize 对识别模型的逐时间步输出做贪心 CTC 解码。
package recognize

import (
	"strings"
)

// Result 单行解码结果
type Result struct {
	Text       string
	Confidence float64
}

// Decode 贪心 CTC 解码
//
// output 为按时间步展开的概率张量, 每个时间步 numClasses 个类别。
// 每步取概率最大的类别; ignored 中的类别直接丢弃; removeDuplicates
// 开启时, 与上一个保留时间步类别相同的时间步也丢弃 (重复预测折叠为
// 单字符)。类别索引相对字典偏移 1 (0 为保留类), 越界的索引跳过。
// 置信度为保留时间步概率的算术平均, 无保留字符时为 0。
func Decode(output []float32, numClasses int, dict []string, ignored map[int]struct{}, removeDuplicates bool) Result {
	if numClasses <= 0 || len(output) < numClasses {
		return Result{}
	}
	steps := len(output) / numClasses

	var sb strings.Builder
	var probSum float64
	kept := 0
	lastKept := -1

	for t := 0; t < steps; t++ {
		frame := output[t*numClasses : (t+1)*numClasses]
		maxIdx := 0
		maxVal := frame[0]
		for i, v := range frame[1:] {
			if v > maxVal {
				maxVal = v
				maxIdx = i + 1
			}
		}

		if _, skip := ignored[maxIdx]; skip {
			continue
		}
		if removeDuplicates && maxIdx == lastKept {
			continue
		}

		// 字典相对类别索引偏移 1, 越界视为模型噪声跳过
		if maxIdx-1 < 0 || maxIdx-1 >= len(dict) {
			continue
		}

		sb.WriteString(dict[maxIdx-1])
		probSum += float64(maxVal)
		kept++
		lastKept = maxIdx
	}

	if kept == 0 {
		return Result{}
	}
	return Result{
		Text:       normalizeText(sb.String()),
		Confidence: probSum / float64(kept),
	}
}

// normalizeText 去掉回车, 连续空白折叠为单个空格, 去除首尾空白
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.Join(strings.Fields(s), " ")
}
