package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.txt")
	// windows 格式行尾与空行混合
	if err := os.WriteFile(path, []byte("a\r\nb\n\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadDict(path)
	if err != nil {
		t.Fatalf("加载字典失败: %v", err)
	}
	want := []string{"a", "b", "", "c"}
	if len(got) != len(want) {
		t.Fatalf("行数错误: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第 %d 行错误: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadDictMissingFile(t *testing.T) {
	if _, err := LoadDict(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("不存在的字典文件应报错")
	}
}
