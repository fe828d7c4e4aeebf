package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"
)

// 导入导出相关常量
const (
	MimeCSV  = "text/csv"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	MaxImportFileSize = 5 << 20
)

var (
	AllowedImportExtensions = []string{".csv", ".xlsx"}
)
