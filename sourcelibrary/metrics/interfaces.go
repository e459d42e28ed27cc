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

// Package metrics defines the monitoring hooks of the bounded source worker.
package metrics

// MonitoringService is the public interface for monitoring service.
type MonitoringService interface {
	Init(appName, workerID string) error
	Start() error
	IncrRecordsProcessed(string, int)
	IncrBytesProcessed(string, int64)
	FractionConsumed(string, float64)
	BundleStarted(string)
	BundleCompleted(string)
	SplitAccepted(string)
	SplitRejected(string)
	RecordReadTime(string, float64)
	RecordProcessRecordsTime(string, float64)
	Shutdown()
}

// NoopMonitoringService implements MonitoringService by does nothing.
type NoopMonitoringService struct{}

func (NoopMonitoringService) Init(appName, workerID string) error { return nil }
func (NoopMonitoringService) Start() error                        { return nil }
func (NoopMonitoringService) Shutdown()                           {}

func (NoopMonitoringService) IncrRecordsProcessed(bundle string, count int)          {}
func (NoopMonitoringService) IncrBytesProcessed(bundle string, count int64)          {}
func (NoopMonitoringService) FractionConsumed(bundle string, fraction float64)       {}
func (NoopMonitoringService) BundleStarted(bundle string)                            {}
func (NoopMonitoringService) BundleCompleted(bundle string)                          {}
func (NoopMonitoringService) SplitAccepted(bundle string)                            {}
func (NoopMonitoringService) SplitRejected(bundle string)                            {}
func (NoopMonitoringService) RecordReadTime(bundle string, millis float64)           {}
func (NoopMonitoringService) RecordProcessRecordsTime(bundle string, millis float64) {}
