package database

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBSettings configures the DynamoDB snapshot store client.
//
// Local-friendly defaults:
//   - Region: us-east-1
//   - AccessKeyID / SecretAccessKey: "local" (DynamoDB Local ignores them)
//   - Endpoint: optional, e.g. http://dynamodb:8000
type DynamoDBSettings struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// ConnectDynamoDB builds a DynamoDB client from settings.
func ConnectDynamoDB(ctx context.Context, s DynamoDBSettings) (*dynamodb.Client, error) {
	cfg, err := NewDynamoDBConfig(ctx, s)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
	}), nil
}

func NewDynamoDBConfig(ctx context.Context, s DynamoDBSettings) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(defaultString(s.Region, "us-east-1")),
	}

	// Static credentials only when given or when talking to a local endpoint;
	// otherwise defer to the default AWS credential chain.
	if s.AccessKeyID != "" || s.Endpoint != "" {
		creds := credentials.NewStaticCredentialsProvider(
			defaultString(s.AccessKeyID, "local"),
			defaultString(s.SecretAccessKey, "local"),
			"",
		)
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

func defaultString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
