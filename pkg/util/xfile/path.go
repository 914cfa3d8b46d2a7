package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// isWindowsAbsPath 识别 "C:\..."、"C:foo"、"\\server\..." 与 "\foo" 形式。
// 非 Windows 平台的 filepath.IsAbs 不认识这些写法，需要单独拦截。
func isWindowsAbsPath(path string) bool {
	if len(path) >= 2 && isASCIILetter(path[0]) && path[1] == ':' {
		return true
	}
	return len(path) >= 1 && path[0] == '\\'
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// hasDotDotSegment 逐段扫描，'/' 与 '\' 都视为分隔符，零分配。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 校验并规范化日志文件路径。
//
// 拒绝空路径、含空字节的路径、以分隔符结尾的目录路径，以及规范化后
// 仍包含 ".." 路径段的相对路径。绝对路径中的 ".." 由 filepath.Clean 正常消解。
//
// 本函数只做格式校验，不把路径限制在某个目录内，需要目录约束时使用 [SafeJoin]。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// Clean 会吃掉尾部分隔符，必须先检查
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SafeJoin 将相对路径 name 拼接到目录 base 下，并保证结果不逃出 base。
//
// base 可以是相对路径，拼接前会转为绝对路径；name 必须是相对路径且不含 ".." 段。
// 不解析符号链接。
func SafeJoin(base, name string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base directory is required: %w", ErrEmptyPath)
	}
	if name == "" {
		return "", fmt.Errorf("name is required: %w", ErrEmptyPath)
	}
	if containsNullByte(base) || containsNullByte(name) {
		return "", fmt.Errorf("base or name contains null byte: %w", ErrNullByte)
	}
	if filepath.IsAbs(name) || isWindowsAbsPath(name) {
		return "", fmt.Errorf("name must be relative: %w", ErrInvalidPath)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %q: %w: %w", base, ErrInvalidPath, err)
	}

	cleanName := filepath.Clean(name)
	if hasDotDotSegment(cleanName) {
		return "", fmt.Errorf("path traversal in name: %w", ErrPathTraversal)
	}

	joined := filepath.Join(absBase, cleanName)
	rel, err := filepath.Rel(absBase, joined)
	if err != nil || hasDotDotSegment(rel) {
		return "", ErrPathEscaped
	}
	return joined, nil
}
