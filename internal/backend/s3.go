// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3Store. Endpoint is optional and lets the
// store target an S3-compatible service (e.g. MinIO) rather than AWS.
type S3Config struct {
	Region         string
	Bucket         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	LargeObjectCutoffBytes int64
}

// S3Store is the concrete BackendStore: segment files are objects
// named by their hex (id0,id1) pair under bucket.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	downloader *manager.Downloader
	bucket   string
}

// NewS3Store builds an S3Store from cfg. When AccessKey/SecretKey are
// both set, static credentials are used (mirrors connecting to a
// local/MinIO endpoint); otherwise the SDK's default credential chain
// resolves from the environment.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var client *s3.Client
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		client = s3.New(s3.Options{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			BaseEndpoint: optionalEndpoint(cfg.Endpoint),
		})
	} else {
		sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("backend: load default aws config: %w", err)
		}
		client = s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}

	cutoff := cfg.LargeObjectCutoffBytes
	if cutoff <= 0 {
		cutoff = 10 * 1024 * 1024
	}

	return &S3Store{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = cutoff
		}),
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = cutoff
		}),
		bucket: cfg.Bucket,
	}, nil
}

func optionalEndpoint(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}

func objectKey(id0, id1 uint64) string {
	return fmt.Sprintf("%016x%016x", id0, id1)
}

// PutSegment streams localPath's contents to the object named by
// (id0, id1), using the multipart uploader so large segments don't
// need to fit in memory.
func (s *S3Store) PutSegment(ctx context.Context, id0, id1 uint64, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("backend: open %s for upload: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(id0, id1)),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("backend: upload segment %s: %w", objectKey(id0, id1), err)
	}
	return nil
}

// GetSegment downloads the object named by (id0, id1) to localPath,
// creating or truncating it.
func (s *S3Store) GetSegment(ctx context.Context, id0, id1 uint64, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("backend: create %s for download: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(id0, id1)),
	})
	if err != nil {
		return fmt.Errorf("backend: download segment %s: %w", objectKey(id0, id1), err)
	}
	return nil
}
