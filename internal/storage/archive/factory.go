// internal/storage/archive/factory.go
package archive

import (
	"fmt"

	"github.com/newthinker/sentinel/internal/config"
)

// New creates the storage backend selected by configuration.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		path := cfg.Path
		if path == "" {
			path = "runs"
		}
		return NewLocalFS(path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
