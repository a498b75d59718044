package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-chi/chi/v5"

	"github.com/xelns/xelns-web/internal/cfg"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/metrics"
	"github.com/xelns/xelns-web/internal/ratelimit"
	"github.com/xelns/xelns-web/internal/remotestore"
	"github.com/xelns/xelns-web/internal/storehttp"
	"github.com/xelns/xelns-web/internal/xerrors"
)

func noRoutes(chi.Router) {}

// setupStoreAPI builds the /api/store endpoints on the configured backend.
// AWS config is only loaded when the s3 backend or the SSM token needs it.
func setupStoreAPI(ctx context.Context, L log.Logger, conf cfg.App, m *metrics.ServerMetrics) (*storehttp.API, error) {
	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, xerrors.Wrap(err, "load AWS config")
		}
		awsCfg = &c
		return c, nil
	}

	var backend remotestore.Backend
	switch conf.StoreBackend {
	case cfg.StoreBackendS3:
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		backend = remotestore.S3Backend{
			Client: s3.NewFromConfig(c),
			Bucket: conf.StoreS3Bucket,
			Key:    conf.StoreS3Key,
		}
	default:
		backend = remotestore.FileBackend{Path: conf.StoreFile}
	}

	var token string
	if conf.StoreTokenSSMParam != "" {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		token, err = storehttp.LoadToken(ctx, ssm.NewFromConfig(c), conf.StoreTokenSSMParam)
		if err != nil {
			return nil, err
		}
		L.Info(ctx, "store writes require a bearer token", "ssm_param", conf.StoreTokenSSMParam)
	} else {
		L.Warn(ctx, "store writes are unauthenticated, set store-token-ssm-param to require a token")
	}

	writeLimiter := ratelimit.New(ctx,
		ratelimit.WithRate(conf.WriteRate, conf.WriteBurst),
		ratelimit.WithOnDenied(func(string) { m.IncRateLimitDenied() }),
		ratelimit.WithOnFirstDenied(func(ip string) {
			L.Warn(ctx, "store write rate limit triggered", "ip", ip)
		}),
	)

	return storehttp.New(storehttp.Options{
		Store: remotestore.New(remotestore.Options{
			Backend: backend,
			Logger:  L.With("subsystem", "remotestore"),
		}),
		Logger:     L,
		Token:      token,
		WriteLimit: writeLimiter.Middleware,
		Metrics:    m,
	}), nil
}
