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

// Package prometheus publishes bounded source worker metrics to Prometheus.
package prometheus

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vmware/vmware-go-bsl/logger"
)

// MonitoringService publishes bsl metrics to Prometheus.
// It might be trick if the service onboarding with BSL already uses Prometheus.
type MonitoringService struct {
	listenAddress string
	namespace     string
	workerID      string
	logger        logger.Logger

	processedRecords   *prom.CounterVec
	processedBytes     *prom.CounterVec
	fractionConsumed   *prom.GaugeVec
	bundlesInFlight    *prom.GaugeVec
	bundlesCompleted   *prom.CounterVec
	splitsAccepted     *prom.CounterVec
	splitsRejected     *prom.CounterVec
	readTime           *prom.HistogramVec
	processRecordsTime *prom.HistogramVec
}

// NewMonitoringService returns a Monitoring service publishing metrics to Prometheus.
func NewMonitoringService(listenAddress string, logger logger.Logger) *MonitoringService {
	return &MonitoringService{
		listenAddress: listenAddress,
		logger:        logger,
	}
}

func (p *MonitoringService) Init(appName, workerID string) error {
	p.namespace = appName
	p.workerID = workerID

	p.processedBytes = prom.NewCounterVec(prom.CounterOpts{
		Name: p.namespace + `_processed_bytes`,
		Help: "Number of bytes processed",
	}, []string{"bundle"})
	p.processedRecords = prom.NewCounterVec(prom.CounterOpts{
		Name: p.namespace + `_processed_records`,
		Help: "Number of records processed",
	}, []string{"bundle"})
	p.fractionConsumed = prom.NewGaugeVec(prom.GaugeOpts{
		Name: p.namespace + `_fraction_consumed`,
		Help: "The fraction of the bundle range already claimed",
	}, []string{"bundle"})
	p.bundlesInFlight = prom.NewGaugeVec(prom.GaugeOpts{
		Name: p.namespace + `_bundles_in_flight`,
		Help: "The number of bundles being consumed by the worker",
	}, []string{"workerID"})
	p.bundlesCompleted = prom.NewCounterVec(prom.CounterOpts{
		Name: p.namespace + `_bundles_completed`,
		Help: "The number of bundles consumed to completion",
	}, []string{"workerID"})
	p.splitsAccepted = prom.NewCounterVec(prom.CounterOpts{
		Name: p.namespace + `_splits_accepted`,
		Help: "The number of accepted dynamic split proposals",
	}, []string{"bundle", "workerID"})
	p.splitsRejected = prom.NewCounterVec(prom.CounterOpts{
		Name: p.namespace + `_splits_rejected`,
		Help: "The number of rejected dynamic split proposals",
	}, []string{"bundle", "workerID"})
	p.readTime = prom.NewHistogramVec(prom.HistogramOpts{
		Name: p.namespace + `_read_duration_seconds`,
		Help: "The time taken to read a batch of records from the bundle",
	}, []string{"bundle"})
	p.processRecordsTime = prom.NewHistogramVec(prom.HistogramOpts{
		Name: p.namespace + `_process_records_duration_seconds`,
		Help: "The time taken to process records",
	}, []string{"bundle"})

	metrics := []prom.Collector{
		p.processedBytes,
		p.processedRecords,
		p.fractionConsumed,
		p.bundlesInFlight,
		p.bundlesCompleted,
		p.splitsAccepted,
		p.splitsRejected,
		p.readTime,
		p.processRecordsTime,
	}
	for _, metric := range metrics {
		err := prom.Register(metric)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *MonitoringService) Start() error {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		p.logger.Infof("Starting Prometheus listener on %s", p.listenAddress)
		err := http.ListenAndServe(p.listenAddress, nil)
		if err != nil {
			p.logger.Errorf("Error starting Prometheus metrics endpoint. %+v", err)
		}
		p.logger.Infof("Stopped metrics server")
	}()

	return nil
}

func (p *MonitoringService) Shutdown() {}

func (p *MonitoringService) IncrRecordsProcessed(bundle string, count int) {
	p.processedRecords.With(prom.Labels{"bundle": bundle}).Add(float64(count))
}

func (p *MonitoringService) IncrBytesProcessed(bundle string, count int64) {
	p.processedBytes.With(prom.Labels{"bundle": bundle}).Add(float64(count))
}

func (p *MonitoringService) FractionConsumed(bundle string, fraction float64) {
	p.fractionConsumed.With(prom.Labels{"bundle": bundle}).Set(fraction)
}

func (p *MonitoringService) BundleStarted(bundle string) {
	p.bundlesInFlight.With(prom.Labels{"workerID": p.workerID}).Inc()
}

func (p *MonitoringService) BundleCompleted(bundle string) {
	p.bundlesInFlight.With(prom.Labels{"workerID": p.workerID}).Dec()
	p.bundlesCompleted.With(prom.Labels{"workerID": p.workerID}).Inc()
}

func (p *MonitoringService) SplitAccepted(bundle string) {
	p.splitsAccepted.With(prom.Labels{"bundle": bundle, "workerID": p.workerID}).Inc()
}

func (p *MonitoringService) SplitRejected(bundle string) {
	p.splitsRejected.With(prom.Labels{"bundle": bundle, "workerID": p.workerID}).Inc()
}

func (p *MonitoringService) RecordReadTime(bundle string, millis float64) {
	p.readTime.With(prom.Labels{"bundle": bundle}).Observe(millis / 1000)
}

func (p *MonitoringService) RecordProcessRecordsTime(bundle string, millis float64) {
	p.processRecordsTime.With(prom.Labels{"bundle": bundle}).Observe(millis / 1000)
}
