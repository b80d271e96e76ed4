package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashwinyue/next-ai/internal/apperr"
)

func errPathEscape(path string) error {
	return apperr.New(apperr.PathEscape, fmt.Sprintf("path %q escapes the allowed directory", path))
}

// ReadFileInput is the schema-inferred parameter struct for readFile.
type ReadFileInput struct {
	Path string `json:"path" jsonschema:"description=file path relative to the allowed directory"`
}

// ReadFile resolves path against allowedDirectory, rejects escapes, reads
// UTF-8 content and truncates it to maxChars with a visible marker.
func ReadFile(allowedDirectory, path string, maxChars int) (string, error) {
	resolved, err := resolvePath(allowedDirectory, path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	content := string(data)
	name := filepath.Base(resolved)
	if runes := []rune(content); maxChars > 0 && len(runes) > maxChars {
		content = string(runes[:maxChars]) + fmt.Sprintf("\n\n...(文件过长，仅显示前%d字符)", maxChars)
	}
	return fmt.Sprintf("文件: %s\n大小: %d 字节\n\n%s", name, len(data), content), nil
}

// ListDirectoryInput is the schema-inferred parameter struct for listDirectory.
type ListDirectoryInput struct {
	Path string `json:"path" jsonschema:"description=directory path relative to the allowed directory"`
}

// ListDirectory returns one line per entry with a kind marker and, for
// files, their size.
func ListDirectory(allowedDirectory, path string) (string, error) {
	resolved, err := resolvePath(allowedDirectory, path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return "", fmt.Errorf("list directory: %w", err)
	}

	var b strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			fmt.Fprintf(&b, "📁 %s/\n", e.Name())
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "📄 %s (%d 字节)\n", e.Name(), info.Size())
	}
	if b.Len() == 0 {
		return "(空目录)", nil
	}
	return b.String(), nil
}

// SearchFilesInput is the schema-inferred parameter struct for searchFiles.
type SearchFilesInput struct {
	Keyword string `json:"keyword" jsonschema:"description=substring to search for"`
	Path    string `json:"path" jsonschema:"description=directory to search, relative to the allowed directory"`
}

// SearchFiles recursively walks path, matching on filename substring
// (case-insensitive) and, for files under maxBytes, on content substring.
// Unreadable entries are ignored.
func SearchFiles(allowedDirectory, keyword, path string, maxBytes int) (string, error) {
	resolved, err := resolvePath(allowedDirectory, path)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(keyword)
	var matches []string

	_ = filepath.Walk(resolved, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil // ignore unreadable entries
		}
		if info.IsDir() {
			return nil
		}
		if strings.Contains(strings.ToLower(info.Name()), needle) {
			matches = append(matches, p)
			return nil
		}
		if int(info.Size()) < maxBytes {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			if strings.Contains(strings.ToLower(string(data)), needle) {
				matches = append(matches, p)
			}
		}
		return nil
	})

	if len(matches) == 0 {
		return fmt.Sprintf("未找到包含 %q 的文件", keyword), nil
	}
	var b strings.Builder
	for _, m := range matches {
		rel, _ := filepath.Rel(resolved, m)
		fmt.Fprintln(&b, rel)
	}
	return b.String(), nil
}

// GetFileInfoInput is the schema-inferred parameter struct for getFileInfo.
type GetFileInfoInput struct {
	Path string `json:"path" jsonschema:"description=file path relative to the allowed directory"`
}

// GetFileInfo returns name, absolute path, size, kind and extension.
func GetFileInfo(allowedDirectory, path string) (string, error) {
	resolved, err := resolvePath(allowedDirectory, path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	return fmt.Sprintf("名称: %s\n路径: %s\n大小: %d 字节\n类型: %s\n扩展名: %s",
		info.Name(), resolved, info.Size(), kind, filepath.Ext(resolved)), nil
}
