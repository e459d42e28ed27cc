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
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/config"
	bsl "github.com/vmware/vmware-go-bsl/sourcelibrary/interfaces"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/metrics"
	par "github.com/vmware/vmware-go-bsl/sourcelibrary/partition"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/source"
)

/**
 * Worker is the high level class that bounded source applications use to start processing data. It initializes and
 * oversees different components (e.g. splitting the source into bundles, tracking bundle assignments, and processing
 * data from the bundles).
 */
type Worker struct {
	workerID string

	processorFactory bsl.IRecordProcessorFactory
	bslConfig        *config.SourceClientLibConfiguration
	src              source.BoundedSource
	mService         metrics.MonitoringService

	stop        *chan struct{}
	completed   chan struct{}
	waitGroup   *sync.WaitGroup
	shutdownMux sync.Mutex
	done        bool

	rng     *rand.Rand
	limiter *rate.Limiter

	bundleStatus  map[string]*par.BundleStatus
	bundleIDs     []string
	nextBundleNum int
}

// NewWorker constructs a Worker instance for processing bounded source data.
func NewWorker(factory bsl.IRecordProcessorFactory, bslConfig *config.SourceClientLibConfiguration) *Worker {
	mService := bslConfig.MonitoringService
	if mService == nil {
		// Replaces nil with noop monitor service (not emitting any metrics).
		mService = metrics.NoopMonitoringService{}
	}

	// Create a pseudo-random number generator and seed it.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &Worker{
		workerID:         bslConfig.WorkerID,
		processorFactory: factory,
		bslConfig:        bslConfig,
		mService:         mService,
		done:             false,
		rng:              rng,
	}
}

// WithSource provides the bounded source the worker consumes.
func (w *Worker) WithSource(src source.BoundedSource) *Worker {
	w.src = src
	return w
}

// WithMonitoringService overrides the monitoring service from the
// configuration.
func (w *Worker) WithMonitoringService(mService metrics.MonitoringService) *Worker {
	if mService != nil {
		w.mService = mService
	}
	return w
}

// Start splits the source into bundles and begins passing their data to the
// application record processors.
func (w *Worker) Start() error {
	log := w.bslConfig.Logger
	if err := w.initialize(); err != nil {
		log.Errorf("Failed to initialize Worker: %+v", err)
		return err
	}

	// Start monitoring service
	log.Infof("Starting monitoring service.")
	if err := w.mService.Start(); err != nil {
		log.Errorf("Failed to start monitoring service: %+v", err)
		return err
	}

	log.Infof("Starting worker event loop.")
	w.waitGroup.Add(1)
	go func() {
		defer w.waitGroup.Done()
		// entering event loop
		w.eventLoop()
	}()
	return nil
}

// Shutdown signals worker to shutdown. Worker will try initiating shutdown of all record processors.
// Concurrent calls are serialized, only the first one closes the stop channel.
func (w *Worker) Shutdown() {
	log := w.bslConfig.Logger
	log.Infof("Worker shutdown in requested.")

	w.shutdownMux.Lock()
	defer w.shutdownMux.Unlock()
	if w.done || w.stop == nil {
		return
	}

	close(*w.stop)
	w.done = true
	w.waitGroup.Wait()

	w.mService.Shutdown()
	log.Infof("Worker loop is complete. Exiting from worker.")
}

// Done returns a channel that is closed once every bundle has reached a
// terminal state. It is only valid after Start.
func (w *Worker) Done() <-chan struct{} {
	return w.completed
}

// initialize
func (w *Worker) initialize() error {
	log := w.bslConfig.Logger
	log.Infof("Worker initialization in progress...")

	if w.src == nil {
		return errors.New("no bounded source provided for worker")
	}

	err := w.mService.Init(w.bslConfig.ApplicationName, w.workerID)
	if err != nil {
		log.Errorf("Failed to start monitoring service: %+v", err)
	}

	splits := w.src.Split(w.bslConfig.DesiredBundleSizeBytes)
	w.bundleStatus = make(map[string]*par.BundleStatus, len(splits))
	w.bundleIDs = make([]string, 0, len(splits))
	w.nextBundleNum = 0
	for _, split := range splits {
		w.addBundle("", split.Start, split.Stop)
	}
	log.Infof("Split source of %d records into %d bundles", w.src.Count(), len(splits))

	if w.bslConfig.EnableDynamicSplitting && w.bslConfig.RebalanceRateLimit > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(w.bslConfig.RebalanceRateLimit), 1)
	}

	stopChan := make(chan struct{})
	w.stop = &stopChan
	w.completed = make(chan struct{})
	w.waitGroup = &sync.WaitGroup{}

	log.Infof("Initialization complete.")

	return nil
}

// addBundle registers a new bundle covering [start, stop) and returns it.
func (w *Worker) addBundle(parentID string, start, stop int64) *par.BundleStatus {
	id := fmt.Sprintf("bundle-%04d", w.nextBundleNum)
	w.nextBundleNum++
	bundle := par.NewBundleStatus(id, parentID, start, stop)
	w.bundleStatus[id] = bundle
	w.bundleIDs = append(w.bundleIDs, id)
	return bundle
}

// newBundleConsumer to create a bundle consumer instance
func (w *Worker) newBundleConsumer(bundle *par.BundleStatus) *BundleConsumer {
	return &BundleConsumer{
		src:              w.src,
		bundle:           bundle,
		processorFactory: w.processorFactory,
		bslConfig:        w.bslConfig,
		consumerID:       w.workerID,
		stop:             w.stop,
		mService:         w.mService,
	}
}

// eventLoop
func (w *Worker) eventLoop() {
	log := w.bslConfig.Logger

	for {
		// Add [-50%, +50%] random jitter to DispatchIntervalMillis. When multiple workers
		// run in the same process, this decreases the probability of their loops waking
		// up at the same time. On average the period remains the same so that doesn't
		// affect behavior.
		dispatchSleep := w.bslConfig.DispatchIntervalMillis/2 + w.rng.Intn(w.bslConfig.DispatchIntervalMillis)

		w.dispatchBundles()

		if w.bslConfig.EnableDynamicSplitting {
			w.rebalance()
		}

		if w.allCompleted() {
			log.Infof("All %d bundles are done. Worker %s completed the source.", len(w.bundleStatus), w.workerID)
			close(w.completed)
			return
		}

		select {
		case <-*w.stop:
			log.Infof("Shutting down...")
			return
		case <-time.After(time.Duration(dispatchSleep) * time.Millisecond):
			log.Debugf("Waited %d ms to dispatch bundles...", dispatchSleep)
		}
	}
}

// dispatchBundles starts consumers for pending bundles until the worker is at
// its concurrency limit.
func (w *Worker) dispatchBundles() {
	log := w.bslConfig.Logger

	inFlight, _ := w.bundleCounts()
	for _, id := range w.bundleIDs {
		if inFlight >= w.bslConfig.MaxConcurrentBundles {
			return
		}
		bundle := w.bundleStatus[id]
		if bundle.IsCompleted() || bundle.IsFailed() || bundle.GetAssignedTo() != "" {
			continue
		}
		bundle.SetAssignedTo(w.workerID)
		w.mService.BundleStarted(bundle.ID)

		log.Infof("Start Bundle Consumer for bundle: %v", bundle.ID)
		bc := w.newBundleConsumer(bundle)
		w.waitGroup.Add(1)
		go func() {
			defer w.waitGroup.Done()
			if err := bc.consumeBundle(); err != nil {
				log.Errorf("Error in consumeBundle: %+v", err)
			}
		}()
		inFlight++
	}
}

// rebalance shrinks the busiest in-flight bundle when consumers sit idle, so
// the cut off remainder can be dispatched to them.
func (w *Worker) rebalance() {
	log := w.bslConfig.Logger

	inFlight, pending := w.bundleCounts()
	if pending > 0 || inFlight == 0 || inFlight >= w.bslConfig.MaxConcurrentBundles {
		return
	}
	if w.limiter != nil && !w.limiter.Allow() {
		return
	}

	bundle := w.splitCandidate()
	if bundle == nil {
		return
	}
	rt := bundle.GetTracker()
	if rt == nil {
		return
	}

	// Aim at the midpoint of the unconsumed remainder. The tracker shrink
	// and the bundle's new stop commit together, so a pass that completes
	// while the proposal is in flight refuses it cleanly.
	fraction := (1 + rt.FractionConsumed()) / 2
	residual, ok := bundle.CompareAndSplit(rt, fraction)
	if !ok {
		w.mService.SplitRejected(bundle.ID)
		log.Debugf("Bundle %s rejected split at fraction %v", bundle.ID, fraction)
		return
	}
	w.mService.SplitAccepted(bundle.ID)

	child := w.addBundle(bundle.ID, residual.Start, residual.Stop)
	log.Infof("Split bundle %s at position %d. Residual bundle %s covers [%d, %d)",
		bundle.ID, residual.Start, child.ID, residual.Start, residual.Stop)
}

// splitCandidate picks the in-flight bundle with the most remaining split
// points. Bundles with less than two remaining records are not worth cutting.
func (w *Worker) splitCandidate() *par.BundleStatus {
	var best *par.BundleStatus
	var bestRemaining int64 = 1
	for _, id := range w.bundleIDs {
		bundle := w.bundleStatus[id]
		if bundle.IsCompleted() || bundle.IsFailed() || bundle.GetAssignedTo() == "" {
			continue
		}
		rt := bundle.GetTracker()
		if rt == nil {
			continue
		}
		sp := rt.SplitPoints()
		if !sp.RemainingKnown || sp.Remaining <= bestRemaining {
			continue
		}
		best = bundle
		bestRemaining = sp.Remaining
	}
	return best
}

// bundleCounts returns how many bundles are being consumed and how many are
// still waiting for a consumer.
func (w *Worker) bundleCounts() (inFlight, pending int) {
	for _, bundle := range w.bundleStatus {
		switch {
		case bundle.IsCompleted() || bundle.IsFailed():
		case bundle.GetAssignedTo() == "":
			pending++
		default:
			inFlight++
		}
	}
	return inFlight, pending
}

func (w *Worker) allCompleted() bool {
	for _, bundle := range w.bundleStatus {
		if !bundle.IsCompleted() && !bundle.IsFailed() {
			return false
		}
	}
	return true
}
