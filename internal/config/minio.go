package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ReceiptPrefix is the object-key prefix every uploaded receipt lives under.
const ReceiptPrefix = "receipts/"

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect    string   `json:"Effect"`
	Principal string   `json:"Principal"`
	Action    []string `json:"Action"`
	Resource  []string `json:"Resource"`
}

// receiptReadPolicy allows anonymous GET on receipt objects only, so the
// public URLs handed to reviewers resolve while the rest of the bucket stays private.
func receiptReadPolicy(bucket string) (string, error) {
	policy := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: "*",
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/" + ReceiptPrefix + "*"},
		}},
	}
	b, err := json.Marshal(policy)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NewMinIOClient connects the receipt store and makes sure the bucket exists.
// A failed policy write is logged and tolerated.
func NewMinIOClient(cfg *Config, logger *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinIOBucket, err)
		}
		logger.Info("created receipt bucket", zap.String("bucket", cfg.MinIOBucket))
	}

	policy, err := receiptReadPolicy(cfg.MinIOBucket)
	if err != nil {
		return nil, err
	}
	if err := client.SetBucketPolicy(ctx, cfg.MinIOBucket, policy); err != nil {
		logger.Warn("failed to set receipt read policy, receipt links may not resolve",
			zap.String("bucket", cfg.MinIOBucket),
			zap.Error(err),
		)
	}

	return client, nil
}
