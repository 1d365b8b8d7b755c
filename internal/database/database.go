package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"cake_heaven_back_end/internal/config"

	"github.com/gocql/gocql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================
// SCYLLA DB
// =============================================

func newScyllaCluster(cfg config.Config) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second

	if cfg.ScyllaUsername != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
		}
	}

	if cfg.ScyllaCAPath != "" {
		caCert, err := os.ReadFile(cfg.ScyllaCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse CA certificate %s", cfg.ScyllaCAPath)
		}
		cluster.SslOpts = &gocql.SslOptions{
			Config:                 &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
			EnableHostVerification: true,
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster, nil
}

func ConnectScylla(cfg config.Config, log *zap.Logger) (*gocql.Session, error) {
	cluster, err := newScyllaCluster(cfg)
	if err != nil {
		return nil, fmt.Errorf("scylla cluster config: %w", err)
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cluster.CreateSession: %w", err)
	}

	log.Info("✅ connected to ScyllaDB", zap.String("keyspace", cfg.ScyllaKeyspace), zap.Strings("hosts", cfg.ScyllaHosts))
	return session, nil
}

// =============================================
// POSTGRES
// =============================================

func ConnectPostgres(ctx context.Context, url string, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	log.Info("✅ connected to Postgres")
	return pool, nil
}

// =============================================
// REDIS
// =============================================

func ConnectRedis(ctx context.Context, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("✅ connected to Redis", zap.String("addr", cfg.RedisHost))
	return client, nil
}

// =============================================
// MINIO
// =============================================

// ConnectMinIO returns nil without error when no endpoint is configured.
func ConnectMinIO(ctx context.Context, cfg config.Config, log *zap.Logger) (*minio.Client, error) {
	if cfg.MinIOEndpoint == "" {
		log.Warn("⚠️ MINIO_ENDPOINT not set, coupon flyers disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio.New: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("client.BucketExists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("client.MakeBucket: %w", err)
		}
		log.Info("🪣 bucket created", zap.String("bucket", cfg.MinIOBucket))
	}

	log.Info("✅ connected to MinIO", zap.String("endpoint", cfg.MinIOEndpoint))
	return client, nil
}
