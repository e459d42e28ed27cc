package cloudwatch

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	cw "github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/stretchr/testify/assert"

	"github.com/vmware/vmware-go-bsl/logger"
)

type fakeCloudWatch struct {
	cloudwatchiface.CloudWatchAPI
	inputs []*cw.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(input *cw.PutMetricDataInput) (*cw.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, input)
	return &cw.PutMetricDataOutput{}, f.err
}

func newTestService(t *testing.T, fake *fakeCloudWatch) *MonitoringService {
	mService := NewMonitoringService("us-west-2", logger.GetDefaultLogger())
	err := mService.Init("appName", "worker-1")
	assert.Nil(t, err)
	mService.svc = fake
	return mService
}

func findDatum(t *testing.T, input *cw.PutMetricDataInput, name string) *cw.MetricDatum {
	for _, datum := range input.MetricData {
		if aws.StringValue(datum.MetricName) == name {
			return datum
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestFlushSendsBufferedMetrics(t *testing.T) {
	fake := &fakeCloudWatch{}
	mService := newTestService(t, fake)

	mService.BundleStarted("b-0")
	mService.IncrRecordsProcessed("b-0", 3)
	mService.IncrBytesProcessed("b-0", 42)
	mService.FractionConsumed("b-0", 0.5)
	mService.RecordReadTime("b-0", 10)
	mService.RecordReadTime("b-0", 20)

	err := mService.flush()
	assert.Nil(t, err)
	assert.Len(t, fake.inputs, 1)

	input := fake.inputs[0]
	assert.Equal(t, "appName", aws.StringValue(input.Namespace))
	assert.Equal(t, 3.0, aws.Float64Value(findDatum(t, input, "RecordsProcessed").Value))
	assert.Equal(t, 42.0, aws.Float64Value(findDatum(t, input, "DataBytesProcessed").Value))
	assert.Equal(t, 0.5, aws.Float64Value(findDatum(t, input, "FractionConsumed").Value))

	readTime := findDatum(t, input, "BundleReader.read.Time").StatisticValues
	assert.Equal(t, 2.0, aws.Float64Value(readTime.SampleCount))
	assert.Equal(t, 30.0, aws.Float64Value(readTime.Sum))
	assert.Equal(t, 20.0, aws.Float64Value(readTime.Maximum))
	assert.Equal(t, 10.0, aws.Float64Value(readTime.Minimum))

	// Counters reset after a successful flush, gauges survive.
	metric := mService.bundleMetrics["b-0"]
	assert.Equal(t, int64(0), metric.processedRecords)
	assert.Equal(t, int64(0), metric.processedBytes)
	assert.Empty(t, metric.readTime)
	assert.Equal(t, 0.5, metric.fractionConsumed)
	assert.Equal(t, int64(1), metric.bundlesInFlight)
}

func TestFlushKeepsBufferOnError(t *testing.T) {
	fake := &fakeCloudWatch{err: errors.New("throttled")}
	mService := newTestService(t, fake)

	mService.IncrRecordsProcessed("b-0", 3)

	err := mService.flush()
	assert.NotNil(t, err)
	assert.Equal(t, int64(3), mService.bundleMetrics["b-0"].processedRecords)

	fake.err = nil
	err = mService.flush()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), mService.bundleMetrics["b-0"].processedRecords)
}

func TestFlushDimensions(t *testing.T) {
	fake := &fakeCloudWatch{}
	mService := newTestService(t, fake)

	mService.SplitAccepted("b-1")
	mService.SplitRejected("b-1")

	err := mService.flush()
	assert.Nil(t, err)

	split := findDatum(t, fake.inputs[0], "Split.Accepted")
	assert.Len(t, split.Dimensions, 2)
	assert.Equal(t, "Bundle", aws.StringValue(split.Dimensions[0].Name))
	assert.Equal(t, "b-1", aws.StringValue(split.Dimensions[0].Value))
	assert.Equal(t, "WorkerID", aws.StringValue(split.Dimensions[1].Name))
	assert.Equal(t, "worker-1", aws.StringValue(split.Dimensions[1].Value))

	records := findDatum(t, fake.inputs[0], "RecordsProcessed")
	assert.Len(t, records.Dimensions, 1)
}
