package recognize

import (
	"math"
	"testing"
)

// tensor 按类别序列构造概率张量: 每个时间步命中类别概率 0.9, 其余 0.01
func tensor(classes []int, numClasses int) []float32 {
	out := make([]float32, len(classes)*numClasses)
	for t, cls := range classes {
		for i := 0; i < numClasses; i++ {
			out[t*numClasses+i] = 0.01
		}
		out[t*numClasses+cls] = 0.9
	}
	return out
}

var blank = map[int]struct{}{0: {}}

func TestDecodeAllBlank(t *testing.T) {
	dict := []string{"A", "B", "C"}
	got := Decode(tensor([]int{0, 0, 0, 0}, 4), 4, dict, blank, true)
	if got.Text != "" || got.Confidence != 0 {
		t.Fatalf("全 blank 期望空结果, got %+v", got)
	}
}

func TestDecodeCollapseDuplicates(t *testing.T) {
	// 类别 5 -> dict[4]="A", 类别 7 -> dict[6]="B"
	dict := []string{"#", "#", "#", "A", "#", "B", "#"}
	classes := []int{5, 5, 0, 7, 7, 7, 0, 5}

	got := Decode(tensor(classes, 8), 8, dict, blank, true)
	if got.Text != "ABA" {
		t.Fatalf("重复折叠错误: got %q, want \"ABA\"", got.Text)
	}
	if !almostEqual(got.Confidence, 0.9) {
		t.Errorf("置信度错误: got %v, want 0.9", got.Confidence)
	}
}

func TestDecodeKeepDuplicates(t *testing.T) {
	dict := []string{"#", "#", "#", "A", "#", "B", "#"}
	classes := []int{5, 5, 0, 7}

	got := Decode(tensor(classes, 8), 8, dict, blank, false)
	if got.Text != "AAB" {
		t.Fatalf("不折叠时应保留重复: got %q, want \"AAB\"", got.Text)
	}
}

func TestDecodeOutOfRangeIndexSkipped(t *testing.T) {
	// 类别 4 超出字典范围, 应跳过而非崩溃
	dict := []string{"A", "B"}
	got := Decode(tensor([]int{1, 4, 2}, 5), 5, dict, blank, true)
	if got.Text != "AB" {
		t.Fatalf("越界索引应跳过: got %q, want \"AB\"", got.Text)
	}
	if !almostEqual(got.Confidence, 0.9) {
		t.Errorf("越界时间步不应计入置信度: got %v", got.Confidence)
	}
}

func TestDecodeWhitespaceNormalization(t *testing.T) {
	dict := []string{"A", " ", "\r", "B"}
	got := Decode(tensor([]int{1, 2, 3, 2, 4, 2}, 5), 5, dict, blank, false)
	if got.Text != "A B" {
		t.Fatalf("空白归一化错误: got %q, want \"A B\"", got.Text)
	}
}

func TestDecodeMalformedInput(t *testing.T) {
	dict := []string{"A"}
	if got := Decode(nil, 4, dict, blank, true); got.Text != "" || got.Confidence != 0 {
		t.Fatalf("空张量期望空结果, got %+v", got)
	}
	if got := Decode([]float32{0.5, 0.5}, 0, dict, blank, true); got.Text != "" {
		t.Fatalf("非法类别数期望空结果, got %+v", got)
	}
}

func TestDecodeMeanConfidence(t *testing.T) {
	dict := []string{"A", "B"}
	// 两个保留时间步概率不同, 置信度取平均
	out := []float32{
		0.1, 0.8, 0.1, // -> A, 0.8
		0.2, 0.2, 0.6, // -> B, 0.6
	}
	got := Decode(out, 3, dict, blank, true)
	if got.Text != "AB" {
		t.Fatalf("解码错误: got %q", got.Text)
	}
	if !almostEqual(got.Confidence, 0.7) {
		t.Errorf("置信度应为平均值 0.7, got %v", got.Confidence)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
