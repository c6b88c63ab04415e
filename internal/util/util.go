package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDict 加载字典文件, 每行一个字符, 行号即类别索引
//
// 行尾的 \r 会被去掉 (windows 格式字典), 空行保留以维持索引对应。
func LoadDict(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开字典文件 %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取字典文件时出错: %w", err)
	}
	return lines, nil
}
