/*
 * Copyright (c) 2019 VMware, Inc.
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of this software and
 * associated documentation files (the "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is furnished to do
 * so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all copies or substantial
 * portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT
 * NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
 * WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 */

// Package cloudwatch publishes bounded source worker metrics to AWS CloudWatch.
package cloudwatch

import (
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"

	"github.com/vmware/vmware-go-bsl/logger"
)

const defaultResolutionSec = 60

// MonitoringService publishes bsl metrics to CloudWatch.
type MonitoringService struct {
	namespace string
	workerID  string
	region    string
	// What granularity we should send metrics to CW at. Note setting this to 1
	// will cost quite a bit of money.
	resolutionSec int
	logger        logger.Logger

	svc           cloudwatchiface.CloudWatchAPI
	bundleMetrics map[string]*cloudWatchMetrics
	mux           sync.Mutex

	stop chan struct{}
	done chan struct{}
}

type cloudWatchMetrics struct {
	processedRecords   int64
	processedBytes     int64
	fractionConsumed   float64
	bundlesInFlight    int64
	bundlesCompleted   int64
	splitsAccepted     int64
	splitsRejected     int64
	readTime           []float64
	processRecordsTime []float64
	sync.Mutex
}

// NewMonitoringService returns a Monitoring service publishing metrics to
// CloudWatch. An empty region defers to the shared AWS configuration.
func NewMonitoringService(region string, logger logger.Logger) *MonitoringService {
	return &MonitoringService{
		region: region,
		logger: logger,
	}
}

// WithResolution overrides the flush interval in seconds.
func (cw *MonitoringService) WithResolution(seconds int) *MonitoringService {
	cw.resolutionSec = seconds
	return cw
}

func (cw *MonitoringService) Init(appName, workerID string) error {
	cw.namespace = appName
	cw.workerID = workerID
	if cw.resolutionSec == 0 {
		cw.resolutionSec = defaultResolutionSec
	}

	cfg := aws.Config{}
	if cw.region != "" {
		cfg.Region = aws.String(cw.region)
	}
	session, err := session.NewSessionWithOptions(
		session.Options{
			Config:            cfg,
			SharedConfigState: session.SharedConfigEnable,
		},
	)
	if err != nil {
		return err
	}

	cw.svc = cloudwatch.New(session)
	cw.bundleMetrics = make(map[string]*cloudWatchMetrics)
	cw.stop = make(chan struct{})
	cw.done = make(chan struct{})
	return nil
}

func (cw *MonitoringService) Start() error {
	go cw.flushDaemon()
	return nil
}

// Shutdown stops the flush daemon and sends the buffered metrics one last time.
func (cw *MonitoringService) Shutdown() {
	close(cw.stop)
	<-cw.done
	if err := cw.flush(); err != nil {
		cw.logger.Errorf("Error sending metrics to CloudWatch: %+v", err)
	}
}

func (cw *MonitoringService) flushDaemon() {
	defer close(cw.done)
	resolution := time.Duration(cw.resolutionSec) * time.Second
	for {
		select {
		case <-cw.stop:
			return
		case <-time.After(resolution):
		}
		if err := cw.flush(); err != nil {
			cw.logger.Errorf("Error sending metrics to CloudWatch: %+v", err)
		}
	}
}

func (cw *MonitoringService) flush() error {
	cw.mux.Lock()
	snapshot := make(map[string]*cloudWatchMetrics, len(cw.bundleMetrics))
	for bundle, metric := range cw.bundleMetrics {
		snapshot[bundle] = metric
	}
	cw.mux.Unlock()

	var lastErr error
	for bundle, metric := range snapshot {
		metric.Lock()
		defaultDimensions := []*cloudwatch.Dimension{
			{
				Name:  aws.String("Bundle"),
				Value: aws.String(bundle),
			},
		}
		workerDimensions := append([]*cloudwatch.Dimension{}, defaultDimensions...)
		workerDimensions = append(workerDimensions, &cloudwatch.Dimension{
			Name:  aws.String("WorkerID"),
			Value: aws.String(cw.workerID),
		})
		metricTimestamp := time.Now()
		_, err := cw.svc.PutMetricData(&cloudwatch.PutMetricDataInput{
			Namespace: aws.String(cw.namespace),
			MetricData: []*cloudwatch.MetricDatum{
				{
					Dimensions: defaultDimensions,
					MetricName: aws.String("RecordsProcessed"),
					Unit:       aws.String("Count"),
					Timestamp:  &metricTimestamp,
					Value:      aws.Float64(float64(metric.processedRecords)),
				},
				{
					Dimensions: defaultDimensions,
					MetricName: aws.String("DataBytesProcessed"),
					Unit:       aws.String("Bytes"),
					Timestamp:  &metricTimestamp,
					Value:      aws.Float64(float64(metric.processedBytes)),
				},
				{
					Dimensions: defaultDimensions,
					MetricName: aws.String("FractionConsumed"),
					Unit:       aws.String("None"),
					Timestamp:  &metricTimestamp,
					Value:      aws.Float64(metric.fractionConsumed),
				},
				{
					Dimensions: defaultDimensions,
					MetricName: aws.String("BundleReader.read.Time"),
					Unit:       aws.String("Milliseconds"),
					Timestamp:  &metricTimestamp,
					StatisticValues: &cloudwatch.StatisticSet{
						SampleCount: aws.Float64(float64(len(metric.readTime))),
						Sum:         sumFloat64(metric.readTime),
						Maximum:     maxFloat64(metric.readTime),
						Minimum:     minFloat64(metric.readTime),
					},
				},
				{
					Dimensions: defaultDimensions,
					MetricName: aws.String("RecordProcessor.processRecords.Time"),
					Unit:       aws.String("Milliseconds"),
					Timestamp:  &metricTimestamp,
					StatisticValues: &cloudwatch.StatisticSet{
						SampleCount: aws.Float64(float64(len(metric.processRecordsTime))),
						Sum:         sumFloat64(metric.processRecordsTime),
						Maximum:     maxFloat64(metric.processRecordsTime),
						Minimum:     minFloat64(metric.processRecordsTime),
					},
				},
				{
					Dimensions: workerDimensions,
					MetricName: aws.String("Split.Accepted"),
					Unit:       aws.String("Count"),
					Timestamp:  &metricTimestamp,
					Value:      aws.Float64(float64(metric.splitsAccepted)),
				},
				{
					Dimensions: workerDimensions,
					MetricName: aws.String("Split.Rejected"),
					Unit:       aws.String("Count"),
					Timestamp:  &metricTimestamp,
					Value:      aws.Float64(float64(metric.splitsRejected)),
				},
				{
					Dimensions: workerDimensions,
					MetricName: aws.String("BundlesInFlight"),
					Unit:       aws.String("Count"),
					Timestamp:  &metricTimestamp,
					Value:      aws.Float64(float64(metric.bundlesInFlight)),
				},
				{
					Dimensions: workerDimensions,
					MetricName: aws.String("BundlesCompleted"),
					Unit:       aws.String("Count"),
					Timestamp:  &metricTimestamp,
					Value:      aws.Float64(float64(metric.bundlesCompleted)),
				},
			},
		})
		if err != nil {
			lastErr = err
		} else {
			// The fraction and the in-flight count are gauges. They survive
			// the flush.
			metric.processedRecords = 0
			metric.processedBytes = 0
			metric.bundlesCompleted = 0
			metric.splitsAccepted = 0
			metric.splitsRejected = 0
			metric.readTime = []float64{}
			metric.processRecordsTime = []float64{}
		}
		metric.Unlock()
	}
	return lastErr
}

func (cw *MonitoringService) metricsFor(bundle string) *cloudWatchMetrics {
	cw.mux.Lock()
	defer cw.mux.Unlock()
	metric, ok := cw.bundleMetrics[bundle]
	if !ok {
		metric = &cloudWatchMetrics{}
		cw.bundleMetrics[bundle] = metric
	}
	return metric
}

func (cw *MonitoringService) IncrRecordsProcessed(bundle string, count int) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.processedRecords += int64(count)
}

func (cw *MonitoringService) IncrBytesProcessed(bundle string, count int64) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.processedBytes += count
}

func (cw *MonitoringService) FractionConsumed(bundle string, fraction float64) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.fractionConsumed = fraction
}

func (cw *MonitoringService) BundleStarted(bundle string) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.bundlesInFlight++
}

func (cw *MonitoringService) BundleCompleted(bundle string) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.bundlesInFlight--
	metric.bundlesCompleted++
}

func (cw *MonitoringService) SplitAccepted(bundle string) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.splitsAccepted++
}

func (cw *MonitoringService) SplitRejected(bundle string) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.splitsRejected++
}

func (cw *MonitoringService) RecordReadTime(bundle string, millis float64) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.readTime = append(metric.readTime, millis)
}

func (cw *MonitoringService) RecordProcessRecordsTime(bundle string, millis float64) {
	metric := cw.metricsFor(bundle)
	metric.Lock()
	defer metric.Unlock()
	metric.processRecordsTime = append(metric.processRecordsTime, millis)
}

func sumFloat64(slice []float64) *float64 {
	sum := float64(0)
	for _, num := range slice {
		sum += num
	}
	return &sum
}

func maxFloat64(slice []float64) *float64 {
	if len(slice) < 1 {
		return aws.Float64(0)
	}
	max := slice[0]
	for _, num := range slice {
		if num > max {
			max = num
		}
	}
	return &max
}

func minFloat64(slice []float64) *float64 {
	if len(slice) < 1 {
		return aws.Float64(0)
	}
	min := slice[0]
	for _, num := range slice {
		if num < min {
			min = num
		}
	}
	return &min
}
