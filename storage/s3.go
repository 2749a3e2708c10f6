package storage

import (
	"bytes"
	"context"
	"fmt"

	"bizradar/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client erstellt einen S3-Client für den Report-Export.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.ReportS3URL,
				SigningRegion:     cfg.ReportS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.ReportS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ReportS3Key, cfg.ReportS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// UploadReport lädt einen serialisierten Analyse-Report ins S3 hoch und
// gibt den Link zurück.
func UploadReport(ctx context.Context, client *s3.Client, cfg *config.Config, key string, data []byte) (string, error) {
	contentType := "application/json"
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &cfg.ReportS3Bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", err
	}
	link := fmt.Sprintf("%s/%s/%s", cfg.ReportS3URL, cfg.ReportS3Bucket, key)
	return link, nil
}
