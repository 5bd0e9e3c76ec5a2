// Package journal arquiva os eventos da frota (transições, divergências,
// erros de cartão) num bucket S3/MinIO para auditoria posterior.
package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/core"
)

// Store guarda um evento. Implementações não devem bloquear por muito tempo:
// o monitor chama Append no meio do loop.
type Store interface {
	Append(ctx context.Context, evt core.FleetEvent) error
}

type NopStore struct{}

func (NopStore) Append(context.Context, core.FleetEvent) error { return nil }

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
	log    zerolog.Logger
}

func NewMinioStore(ctx context.Context, cfg MinioConfig, logger zerolog.Logger) (*MinioStore, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access key / secret key not configured")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "gopro-fleet-events"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "events"
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Cria bucket se não existir
	if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, errBucketExists := cli.BucketExists(ctx, cfg.Bucket)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("create/check bucket %s: %w", cfg.Bucket, err)
		}
	}

	log := logger.With().Str("component", "journal").Str("bucket", cfg.Bucket).Logger()
	log.Info().Str("endpoint", cfg.Endpoint).Msg("minio journal ready")

	return &MinioStore{
		client: cli,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log,
	}, nil
}

func (s *MinioStore) Append(ctx context.Context, evt core.FleetEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.EventID, err)
	}

	key := objectKey(s.prefix, evt)
	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put event %s: %w", key, err)
	}
	s.log.Debug().Str("key", key).Msg("event archived")
	return nil
}

// NewEvent preenche id e timestamp.
func NewEvent(typ core.EventType, cam *core.CameraIdentity, recording bool, meta map[string]interface{}) core.FleetEvent {
	evt := core.FleetEvent{
		Timestamp: time.Now().UTC(),
		EventID:   uuid.New().String(),
		Type:      typ,
		Recording: recording,
		Meta:      meta,
	}
	if cam != nil {
		evt.Camera = cam.SSID
		evt.Interface = cam.Interface
	}
	return evt
}

// objectKey agrupa por dia: <prefix>/2006/01/02/<unixnano>-<tipo>-<id>.json
func objectKey(prefix string, evt core.FleetEvent) string {
	ts := evt.Timestamp.UTC()
	return fmt.Sprintf("%s/%s/%d-%s-%s.json", prefix, ts.Format("2006/01/02"), ts.UnixNano(), evt.Type, evt.EventID)
}
