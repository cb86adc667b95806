package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used for metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// DeliveryMetrics records push delivery outcomes in CloudWatch. It is used
// by the Lambda dispatcher, where no Prometheus scrape endpoint exists.
type DeliveryMetrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeliveryMetrics creates delivery metrics. A nil client disables them.
func NewDeliveryMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *DeliveryMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryMetrics{namespace: namespace, client: client, logger: logger, now: time.Now}
}

// RecordDelivery records one dispatch to a user's connections
func (m *DeliveryMetrics) RecordDelivery(ctx context.Context, delivered, gone, failed int, latency time.Duration) {
	if m == nil || m.client == nil {
		return
	}

	ts := aws.Time(m.now())
	data := []types.MetricDatum{
		m.count("PushDelivered", delivered, ts),
		m.count("PushGoneConnections", gone, ts),
		m.count("PushFailed", failed, ts),
		{
			MetricName: aws.String("PushLatency"),
			Value:      aws.Float64(float64(latency.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  ts,
		},
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}

func (m *DeliveryMetrics) count(name string, n int, ts *time.Time) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(float64(n)),
		Unit:       types.StandardUnitCount,
		Timestamp:  ts,
	}
}
