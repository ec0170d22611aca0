package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	"github.com/wolfman30/clinic-scheduling-agent/internal/session"
)

// buildLedgerStore selects the booking store named by LEDGER_BACKEND.
func (b *builder) buildLedgerStore(ctx context.Context) (bookings.Store, error) {
	switch b.cfg.LedgerBackend {
	case "memory":
		return bookings.NewMemoryStore(), nil
	case "", "file":
		b.logger.Info("booking ledger: json file", "path", b.cfg.LedgerFile)
		return bookings.NewJSONStore(bookings.FileBlob{Path: b.cfg.LedgerFile}), nil
	case "s3":
		awsCfg, err := b.aws(ctx)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = b.cfg.AWSEndpointOverride != ""
		})
		b.logger.Info("booking ledger: s3 object", "bucket", b.cfg.LedgerS3Bucket, "key", b.cfg.LedgerS3Key)
		return bookings.NewJSONStore(bookings.NewS3Blob(client, b.cfg.LedgerS3Bucket, b.cfg.LedgerS3Key)), nil
	case "postgres":
		pool, err := BuildPostgresPool(ctx, b.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.checks["ledger"] = func(ctx context.Context) error { return pool.Ping(ctx) }
		b.logger.Info("booking ledger: postgres")
		return bookings.NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown ledger backend %q", b.cfg.LedgerBackend)
	}
}

// buildSessionBackend selects the session backend named by SESSION_BACKEND.
func (b *builder) buildSessionBackend(ctx context.Context) (session.Backend, error) {
	switch b.cfg.SessionBackend {
	case "", "memory":
		return session.NewMemoryBackend(b.cfg.SessionTTL), nil
	case "redis":
		client := BuildRedisClient(ctx, b.cfg, b.logger, true)
		if client == nil {
			return nil, fmt.Errorf("bootstrap: redis unavailable at %q", b.cfg.RedisAddr)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.checks["sessions"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		b.logger.Info("session store: redis", "addr", b.cfg.RedisAddr)
		return session.NewRedisBackend(client, b.cfg.SessionTTL), nil
	case "dynamodb":
		awsCfg, err := b.aws(ctx)
		if err != nil {
			return nil, err
		}
		b.logger.Info("session store: dynamodb", "table", b.cfg.SessionsTable)
		return session.NewDynamoBackend(dynamodb.NewFromConfig(awsCfg), b.cfg.SessionsTable, b.cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", b.cfg.SessionBackend)
	}
}
