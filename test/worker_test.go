/*
 * Copyright (c) 2018 VMware, Inc.
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
package test

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/vmware/vmware-go-bsl/logger"
	zerologlogger "github.com/vmware/vmware-go-bsl/logger/zerolog"
	cfg "github.com/vmware/vmware-go-bsl/sourcelibrary/config"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/metrics"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/metrics/cloudwatch"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/metrics/prometheus"
	wk "github.com/vmware/vmware-go-bsl/sourcelibrary/worker"
	zaplogger "github.com/vmware/vmware-go-bsl/logger/zap"
)

const (
	appName    = "appName"
	regionName = "us-west-2"
	workerID   = "test-worker"
)

const metricsSystem = "prometheus"

func TestWorker(t *testing.T) {
	// At minimal. use standard logrus logger
	// log := logger.NewLogrusLogger(logrus.StandardLogger())
	//
	// In order to have precise control over logging. Use logger with config
	config := logger.Configuration{
		EnableConsole:     true,
		ConsoleLevel:      logger.Debug,
		ConsoleJSONFormat: false,
		EnableFile:        true,
		FileLevel:         logger.Info,
		FileJSONFormat:    true,
		Filename:          "log.log",
	}
	// Use logrus logger
	log := logger.NewLogrusLoggerWithConfig(config)

	bslConfig := cfg.NewSourceClientLibConfig(appName, workerID).
		WithDesiredBundleSizeBytes(1024).
		WithMaxConcurrentBundles(4).
		WithMaxRecordsPerBatch(10).
		WithDispatchIntervalMillis(20).
		WithLogger(log)

	// configure prometheus as metrics system
	bslConfig.WithMonitoringService(getMetricsConfig(bslConfig, metricsSystem))

	runTest(bslConfig, 100, false, t)
}

func TestWorkerWithStaticSplittingOnly(t *testing.T) {
	// In order to have precise control over logging. Use logger with config
	config := logger.Configuration{
		EnableConsole:     true,
		ConsoleLevel:      logger.Debug,
		ConsoleJSONFormat: false,
	}
	// Use zerolog logger
	log := zerologlogger.NewZerologLoggerWithConfig(config)

	bslConfig := cfg.NewSourceClientLibConfig(appName, workerID).
		WithDesiredBundleSizeBytes(2048).
		WithMaxConcurrentBundles(2).
		WithMaxRecordsPerBatch(10).
		WithDispatchIntervalMillis(20).
		WithDynamicSplitting(false).
		WithLogger(log)

	runTest(bslConfig, 100, false, t)
}

func TestWorkerWithSigInt(t *testing.T) {
	// At miminal. use standard zap logger
	//zapLogger, err := zap.NewProduction()
	//assert.Nil(t, err)
	//log := zaplogger.NewZapLogger(zapLogger.Sugar())
	//
	// In order to have precise control over logging. Use logger with config.
	config := logger.Configuration{
		EnableConsole:     true,
		ConsoleLevel:      logger.Debug,
		ConsoleJSONFormat: true,
		EnableFile:        true,
		FileLevel:         logger.Info,
		FileJSONFormat:    true,
		Filename:          "log.log",
	}
	// use zap logger
	log := zaplogger.NewZapLoggerWithConfig(config)

	bslConfig := cfg.NewSourceClientLibConfig(appName, workerID).
		WithMaxRecordsPerBatch(10).
		WithDispatchIntervalMillis(20).
		WithLogger(log)

	runTest(bslConfig, 1000, true, t)
}

func TestWorkerWithCloudWatch(t *testing.T) {
	t.Skip("Need to provide actual credentials")

	bslConfig := cfg.NewSourceClientLibConfig(appName, workerID).
		WithMaxRecordsPerBatch(10).
		WithDispatchIntervalMillis(20)

	// configure cloudwatch as metrics system
	bslConfig.WithMonitoringService(getMetricsConfig(bslConfig, "cloudwatch"))

	runTest(bslConfig, 100, false, t)
}

func runTest(bslConfig *cfg.SourceClientLibConfiguration, numRecords int, triggersig bool, t *testing.T) {
	assert.Equal(t, appName, bslConfig.ApplicationName)
	assert.Equal(t, workerID, bslConfig.WorkerID)

	worker := wk.NewWorker(recordProcessorFactory(t), bslConfig).
		WithSource(newTestSource(t, numRecords))

	err := worker.Start()
	assert.Nil(t, err)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	// Keep signals sent by later tests away from this test's handler.
	defer signal.Stop(sigs)

	// Signal processing.
	go func() {
		sig := <-sigs
		t.Logf("Received signal %s. Exiting", sig)
		worker.Shutdown()
		// some other processing before exit.
		//os.Exit(0)
	}()

	if triggersig {
		t.Log("Trigger signal SIGINT")
		p, _ := os.FindProcess(os.Getpid())
		p.Signal(os.Interrupt)

		// wait for the signal handler to shut the worker down mid-consumption
		time.Sleep(500 * time.Millisecond)
		return
	}

	// wait for the worker to drain the source before shutdown processing
	select {
	case <-worker.Done():
	case <-time.After(10 * time.Second):
		t.Error("Timed out waiting for the worker to consume the source")
	}

	if bslConfig.MonitoringService != nil && metricsSystem == "prometheus" {
		res, err := http.Get("http://localhost:8080/metrics")
		if err != nil {
			t.Fatalf("Error scraping Prometheus endpoint %s", err)
		}

		var parser expfmt.TextParser
		parsed, err := parser.TextToMetricFamilies(res.Body)
		res.Body.Close()
		if err != nil {
			t.Errorf("Error reading monitoring response %s", err)
		}
		t.Logf("Prometheus: %+v", parsed)
		assert.Contains(t, parsed, appName+"_bundles_completed")
		assert.Contains(t, parsed, appName+"_processed_records")
	}

	t.Log("Calling normal shutdown at the end of application.")
	worker.Shutdown()
}

// configure different metrics system
func getMetricsConfig(bslConfig *cfg.SourceClientLibConfiguration, service string) metrics.MonitoringService {

	if service == "cloudwatch" {
		return cloudwatch.NewMonitoringService(regionName, bslConfig.Logger).
			WithResolution(1)
	}

	if service == "prometheus" {
		return prometheus.NewMonitoringService(":8080", bslConfig.Logger)
	}

	return nil
}
