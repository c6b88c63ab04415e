package ocr

import (
	"fmt"
	"runtime"
)

// DefaultLibraryPath 根据运行时环境推断 onnxruntime 动态库路径,
// Config 未显式指定库文件时作为默认值
func DefaultLibraryPath() string {
	const baseDir = "./lib/"
	const libName = "onnxruntime"

	// windows 为统一的 onnxruntime.dll, 其余平台按架构区分:
	// ./lib/onnxruntime + _ + amd64/arm64 + . + so/dylib
	switch runtime.GOOS {
	case "windows":
		return baseDir + libName + ".dll"
	case "darwin":
		return fmt.Sprintf("%s%s_%s.dylib", baseDir, libName, runtime.GOARCH)
	case "linux":
		return fmt.Sprintf("%s%s_%s.so", baseDir, libName, runtime.GOARCH)
	default:
		return baseDir + libName + "_amd64.so" // 默认返回 linux amd64
	}
}
