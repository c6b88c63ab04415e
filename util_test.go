package ocr

import (
	"runtime"
	"strings"
	"testing"
)

func TestDefaultLibraryPath(t *testing.T) {
	path := DefaultLibraryPath()
	if !strings.HasPrefix(path, "./lib/onnxruntime") {
		t.Fatalf("库路径前缀错误: %q", path)
	}
	switch runtime.GOOS {
	case "windows":
		if !strings.HasSuffix(path, ".dll") {
			t.Errorf("windows 应为 dll: %q", path)
		}
	case "darwin":
		if !strings.HasSuffix(path, runtime.GOARCH+".dylib") {
			t.Errorf("darwin 应按架构区分 dylib: %q", path)
		}
	case "linux":
		if !strings.HasSuffix(path, runtime.GOARCH+".so") {
			t.Errorf("linux 应按架构区分 so: %q", path)
		}
	}
}
