package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

const (
	DefaultPracticeQuestionCount = 10
	MaxPracticeQuestionCount     = 200
)
