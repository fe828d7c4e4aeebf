package util

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// ValidateImportFile 校验导入文件的扩展名与内容类型，返回小写扩展名
// csv 嗅探结果为 text/plain，xlsx 为 zip 容器
func ValidateImportFile(filename string, reader io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range AllowedImportExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", errors.New("unsupported file type: " + ext)
	}

	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if n == 0 {
		return "", errors.New("file is empty")
	}

	mimeType := http.DetectContentType(buffer[:n])
	switch ext {
	case ".csv":
		if !strings.HasPrefix(mimeType, "text/") {
			return "", errors.New("invalid file type: " + mimeType)
		}
	case ".xlsx":
		if mimeType != "application/zip" {
			return "", errors.New("invalid file type: " + mimeType)
		}
	}
	return ext, nil
}
