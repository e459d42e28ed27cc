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
package worker

import (
	"fmt"
	"math"
	"time"

	"github.com/matryer/try"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/config"
	bsl "github.com/vmware/vmware-go-bsl/sourcelibrary/interfaces"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/metrics"
	par "github.com/vmware/vmware-go-bsl/sourcelibrary/partition"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/source"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/tracker"
)

// ErrBundleFailed is returned when every pass over a bundle failed and the
// worker gives up on it.
type ErrBundleFailed struct {
	bundleID string
	passes   int
	cause    error
}

func (e ErrBundleFailed) Error() string {
	return fmt.Sprintf("giving up on bundle %s after %d passes: %s", e.bundleID, e.passes, e.cause)
}

func (e ErrBundleFailed) Unwrap() error {
	return e.cause
}

// BundleConsumer is responsible for reading data records from a (assigned) bundle.
// Note: BundleConsumer only deals with one bundle.
type BundleConsumer struct {
	src              source.BoundedSource
	bundle           *par.BundleStatus
	processorFactory bsl.IRecordProcessorFactory
	bslConfig        *config.SourceClientLibConfiguration
	consumerID       string
	stop             *chan struct{}
	mService         metrics.MonitoringService
}

// consumeBundle reads the bundle to completion, retrying failed passes with
// exponential backoff. Every pass gets a fresh tracker and a fresh record
// processor, so a retry re-reads whatever remains of the bundle.
func (bc *BundleConsumer) consumeBundle() error {
	log := bc.bslConfig.Logger

	err := try.Do(func(attempt int) (bool, error) {
		retry := attempt < bc.bslConfig.MaxBundleRetries
		err := bc.consumeOnce()
		if err != nil && retry {
			// exponential backoff
			backoff := time.Duration(math.Exp2(float64(attempt))*float64(bc.bslConfig.TaskBackoffTimeMillis)) * time.Millisecond
			log.Warnf("Pass %d over bundle %s failed, retrying in %v: %+v", attempt, bc.bundle.ID, backoff, err)
			time.Sleep(backoff)
		}
		return retry, err
	})
	if err != nil {
		bc.bundle.SetFailed(true)
		return ErrBundleFailed{bundleID: bc.bundle.ID, passes: bc.bslConfig.MaxBundleRetries, cause: err}
	}
	return nil
}

// consumeOnce runs a single pass over whatever remains of the bundle.
func (bc *BundleConsumer) consumeOnce() error {
	log := bc.bslConfig.Logger

	attempt := bc.bundle.IncrAttempts()
	rt := bc.src.GetRangeTracker(bc.bundle.Start, bc.bundle.GetStop())
	bc.bundle.SetTracker(rt)
	defer bc.bundle.SetTracker(nil)

	log.Debugf("Pass %d over bundle %s [%d, %d)", attempt, bc.bundle.ID, rt.StartPosition(), rt.StopPosition())

	// Notify the record processor on the bundle and its starting range.
	recordProcessor := bc.processorFactory.CreateProcessor()
	recordProcessor.Initialize(&bsl.InitializationInput{
		BundleID:      bc.bundle.ID,
		StartPosition: rt.StartPosition(),
		StopPosition:  rt.StopPosition(),
	})

	reader := bc.src.Read(rt)
	batch := make([]*source.Record, 0, bc.bslConfig.MaxRecordsPerBatch)
	readStartTime := time.Now()

	for reader.Next() {
		batch = append(batch, reader.Record())
		if len(batch) < bc.bslConfig.MaxRecordsPerBatch {
			continue
		}
		bc.processBatch(recordProcessor, rt, readStartTime, batch)
		batch = make([]*source.Record, 0, bc.bslConfig.MaxRecordsPerBatch)
		readStartTime = time.Now()

		select {
		case <-*bc.stop:
			recordProcessor.Shutdown(&bsl.ShutdownInput{ShutdownReason: bsl.REQUESTED})
			return nil
		default:
		}
	}

	if err := reader.Err(); err != nil {
		recordProcessor.Shutdown(&bsl.ShutdownInput{ShutdownReason: bsl.ABORTED})
		return err
	}

	if len(batch) > 0 {
		bc.processBatch(recordProcessor, rt, readStartTime, batch)
	}

	// The pass consumed everything up to the stop the splitter left in place.
	recordProcessor.Shutdown(&bsl.ShutdownInput{ShutdownReason: bsl.TERMINATE})
	bc.bundle.SetCompleted(true)
	bc.mService.FractionConsumed(bc.bundle.ID, rt.FractionConsumed())
	bc.mService.BundleCompleted(bc.bundle.ID)

	sp := rt.SplitPoints()
	log.Infof("Bundle %s completed by worker %s after consuming %d records", bc.bundle.ID, bc.consumerID, sp.Consumed)
	return nil
}

func (bc *BundleConsumer) processBatch(recordProcessor bsl.IRecordProcessor, rt tracker.RangeTracker, readStartTime time.Time, records []*source.Record) {
	log := bc.bslConfig.Logger

	readTime := time.Since(readStartTime).Milliseconds()
	bc.mService.RecordReadTime(bc.bundle.ID, float64(readTime))

	recordBytes := int64(0)
	for _, r := range records {
		recordBytes += r.Size
	}
	log.Debugf("Received %d records from bundle %s", len(records), bc.bundle.ID)

	processRecordsStartTime := time.Now()

	// Delivery the events to the record processor
	input := &bsl.ProcessRecordsInput{
		CacheEntryTime: &readStartTime,
		CacheExitTime:  &processRecordsStartTime,
		Records:        records,
		Progress:       rt,
	}
	recordProcessor.ProcessRecords(input)

	processedRecordsTiming := time.Since(processRecordsStartTime).Milliseconds()
	bc.mService.RecordProcessRecordsTime(bc.bundle.ID, float64(processedRecordsTiming))

	bc.mService.IncrRecordsProcessed(bc.bundle.ID, len(records))
	bc.mService.IncrBytesProcessed(bc.bundle.ID, recordBytes)
	bc.mService.FractionConsumed(bc.bundle.ID, rt.FractionConsumed())
}
