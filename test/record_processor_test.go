/*
 * Copyright (c) 2020 VMware, Inc.
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
	"github.com/stretchr/testify/assert"
	bsl "github.com/vmware/vmware-go-bsl/sourcelibrary/interfaces"
	"testing"
)

// Record processor factory is used to create RecordProcessor
func recordProcessorFactory(t *testing.T) bsl.IRecordProcessorFactory {
	return &dumpRecordProcessorFactory{t: t}
}

// simple record processor and dump everything
type dumpRecordProcessorFactory struct {
	t *testing.T
}

func (d *dumpRecordProcessorFactory) CreateProcessor() bsl.IRecordProcessor {
	return &dumpRecordProcessor{
		t: d.t,
	}
}

// Create a dump record processor for printing out all data from record.
type dumpRecordProcessor struct {
	t     *testing.T
	count int
}

func (dd *dumpRecordProcessor) Initialize(input *bsl.InitializationInput) {
	dd.t.Logf("Processing bundle: %v covering [%v, %v)", input.BundleID, input.StartPosition, input.StopPosition)
	dd.count = 0
}

func (dd *dumpRecordProcessor) ProcessRecords(input *bsl.ProcessRecordsInput) {
	dd.t.Log("Processing Records...")

	// don't process empty record
	if len(input.Records) == 0 {
		return
	}

	for _, v := range input.Records {
		dd.t.Logf("Record = %s", v.Value)
		assert.Equal(dd.t, specstr, v.Value)
		dd.count++
	}

	lastRecordPosition := input.Records[len(input.Records)-1].Position
	dd.t.Logf("Read progress at: %v, FractionConsumed = %v", lastRecordPosition, input.Progress.FractionConsumed())
}

func (dd *dumpRecordProcessor) Shutdown(input *bsl.ShutdownInput) {
	dd.t.Logf("Shutdown Reason: %v", bsl.ShutdownReasonMessage(input.ShutdownReason))
	dd.t.Logf("Processed Record Count = %d", dd.count)

	// A TERMINATE means the bundle range was read to the end. The splitter
	// never produces an empty bundle, so the processor must have seen data.
	if input.ShutdownReason == bsl.TERMINATE {
		assert.True(dd.t, dd.count > 0)
	}
}
