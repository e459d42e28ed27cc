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
	"fmt"
	"testing"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/source"
)

const specstr = `{"name":"kube-qQyhk","networking":{"containerNetworkCidr":"10.2.0.0/16"},"orgName":"BVT-Org-cLQch","projectName":"project-tDSJd","serviceLevel":"DEVELOPER","size":{"count":1},"version":"1.8.1-4"}`

// newTestSource builds an in-memory source holding n copies of the test
// payload. It stands in for the data set a real application would point the
// Worker at.
func newTestSource(t *testing.T, n int) *source.SliceSource {
	values := make([]interface{}, n)
	for i := range values {
		values[i] = specstr
	}

	src, err := source.NewSliceSource(values, nil)
	if err != nil {
		// no need to move forward
		t.Fatalf("Failed in building source for creating Worker: %+v", err)
	}
	return src
}

// newSequenceSource builds a source of n distinct records, so ordering and
// coverage mistakes show up as value mismatches.
func newSequenceSource(t *testing.T, n int) *source.SliceSource {
	values := make([]interface{}, n)
	for i := range values {
		values[i] = fmt.Sprintf("record-%02d", i)
	}

	src, err := source.NewSliceSource(values, nil)
	if err != nil {
		t.Fatalf("Failed in building source: %+v", err)
	}
	return src
}
