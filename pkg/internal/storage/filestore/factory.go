package filestore

import (
	"context"
	"fmt"

	"github.com/yeisme/employeeman/pkg/configs"
	s3c "github.com/yeisme/employeeman/pkg/internal/storage/s3"
	nlog "github.com/yeisme/employeeman/pkg/log"
)

// New 按 storage.disk 创建后端，远端后端套上熔断.
func New(ctx context.Context, cfg configs.StorageConfig, cb configs.CircuitBreakerConfig) (Store, error) {
	switch cfg.Disk {
	case configs.DiskLocal, "":
		l, err := NewLocal(cfg.Local.Root)
		if err != nil {
			return nil, err
		}

		nlog.Logger().Info().Str("disk", l.Disk()).Str("root", l.Root()).Msg("file store ready")

		return l, nil
	case configs.DiskS3:
		cli, err := s3c.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}

		nlog.Logger().Info().Str("disk", string(cfg.Disk)).Str("bucket", cli.Bucket()).Msg("file store ready")

		return WithBreaker(NewS3(cli, cfg.PresignExpiry), cb), nil
	default:
		return nil, fmt.Errorf("unsupported storage disk: %s", cfg.Disk)
	}
}
