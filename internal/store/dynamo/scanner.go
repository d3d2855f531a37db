// Package dynamo implements store.Scanner on top of Amazon DynamoDB.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	gobreaker "github.com/sony/gobreaker/v2"

	"example.com/ridedash/internal/logging"
	"example.com/ridedash/internal/record"
	"example.com/ridedash/internal/store"
)

// ClientConfig describes how to reach DynamoDB. Endpoint and static
// credentials are optional and mostly used against DynamoDB Local.
type ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds a DynamoDB client from the default AWS credential chain,
// overridden by any static credentials or endpoint in cfg.
func NewClient(ctx context.Context, cfg ClientConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Options tunes the Scanner.
type Options struct {
	// Timeout bounds one full paginated scan. Zero disables the bound.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failed scans that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Scanner reads whole tables page by page.
type Scanner struct {
	client  dynamodb.ScanAPIClient
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]record.Record]
}

// NewScanner wraps client.
func NewScanner(client dynamodb.ScanAPIClient, opts Options) *Scanner {
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]record.Record](gobreaker.Settings{
		Name:        "dynamodb-scan",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Scanner{client: client, timeout: opts.Timeout, breaker: breaker}
}

// Scan implements store.Scanner.
func (s *Scanner) Scan(ctx context.Context, table string) ([]record.Record, error) {
	items, err := s.breaker.Execute(func() ([]record.Record, error) {
		return s.scanAll(ctx, table)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", store.ErrUnavailable, table, err)
	}
	return items, nil
}

func (s *Scanner) scanAll(ctx context.Context, table string) ([]record.Record, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})

	var out []record.Record
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			out = append(out, FromItem(item))
		}
	}
	return out, nil
}
