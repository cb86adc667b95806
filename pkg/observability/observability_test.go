package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCloudWatch struct {
	mock.Mock
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cloudwatch.PutMetricDataOutput), args.Error(1)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("linklist")
	c.HTTPRequests.WithLabelValues("GET", "/api/v1/notifications", "200").Inc()
	c.PushFailures.WithLabelValues("buffer_full").Add(2)
	c.RegisterGauge("linklist", "ws_connections", "Live websocket connections", func() float64 { return 3 })

	assert.Equal(t, 2.0, testutil.ToFloat64(c.PushFailures.WithLabelValues("buffer_full")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `linklist_http_requests_total{method="GET",route="/api/v1/notifications",status="200"} 1`))
	assert.True(t, strings.Contains(body, "linklist_ws_connections 3"))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector("linklist")
		NewCollector("linklist")
	})
}

func TestDeliveryMetrics(t *testing.T) {
	cw := &mockCloudWatch{}
	cw.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		return aws.ToString(in.Namespace) == "LinkList/Push" && len(in.MetricData) == 4 &&
			aws.ToFloat64(in.MetricData[0].Value) == 2 && aws.ToFloat64(in.MetricData[1].Value) == 1
	})).Return(&cloudwatch.PutMetricDataOutput{}, nil).Once()

	m := NewDeliveryMetrics("LinkList/Push", cw, nil)
	m.RecordDelivery(context.Background(), 2, 1, 0, 15*time.Millisecond)
	cw.AssertExpectations(t)
}

func TestDeliveryMetrics_ErrorsAndNilClient(t *testing.T) {
	cw := &mockCloudWatch{}
	cw.On("PutMetricData", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	assert.NotPanics(t, func() {
		NewDeliveryMetrics("ns", cw, nil).RecordDelivery(context.Background(), 1, 0, 0, time.Millisecond)
	})

	assert.NotPanics(t, func() {
		NewDeliveryMetrics("ns", nil, nil).RecordDelivery(context.Background(), 1, 0, 0, time.Millisecond)
		var m *DeliveryMetrics
		m.RecordDelivery(context.Background(), 1, 0, 0, time.Millisecond)
	})
}

func TestTracer_Disabled(t *testing.T) {
	tr := NewTracer("linklist", false)
	ctx := context.Background()

	segCtx, seg := tr.StartSegment(ctx, "request")
	assert.Nil(t, seg)
	assert.Equal(t, ctx, segCtx)

	boom := errors.New("boom")
	called := false
	err := tr.TraceFunction(ctx, "dynamodb.PutItem", func(context.Context) error {
		called = true
		return boom
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, boom)

	assert.NotPanics(t, func() {
		tr.AddAnnotation(ctx, "userID", "u1")
		tr.RecordError(ctx, boom)
	})
}

func TestTracer_NoParentSegment(t *testing.T) {
	tr := NewTracer("linklist", true)
	_, seg := tr.StartSubsegment(context.Background(), "orphan")
	assert.Nil(t, seg)
}
