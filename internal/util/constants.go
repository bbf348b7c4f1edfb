package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeImage       = "image/"
	MimeAudio       = "audio/"
	MimeOctetStream = "application/octet-stream"
)

var AudioContainers = []string{"video/webm", "application/ogg", "video/ogg"}

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)
