// SPDX-License-Identifier: MPL-2.0

package component

import (
	"github.com/google/uuid"
)

// progressTitle is shown by clients for every indexing request.
const progressTitle = "Indexing..."

type (
	// Progress is one progress event of an indexing request. All events of a
	// request share the same ID.
	Progress struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Message    string `json:"message,omitempty"`
		Percentage *int   `json:"percentage,omitempty"`
		Done       bool   `json:"done,omitempty"`
	}

	// ProgressSink receives progress events from the worker.
	ProgressSink interface {
		Report(Progress)
	}

	// ProgressFunc adapts a function to ProgressSink.
	ProgressFunc func(Progress)

	// progressReporter emits the events of one request.
	progressReporter struct {
		sink ProgressSink
		id   string
	}
)

// Report calls f.
func (f ProgressFunc) Report(p Progress) {
	f(p)
}

func newProgressReporter(sink ProgressSink) *progressReporter {
	return &progressReporter{sink: sink, id: uuid.NewString()}
}

func (r *progressReporter) begin(message string) {
	r.emit(Progress{ID: r.id, Title: progressTitle, Message: message})
}

func (r *progressReporter) step(message string, done, total int) {
	pct := 100
	if total > 0 {
		pct = done * 100 / total
	}
	r.emit(Progress{ID: r.id, Title: progressTitle, Message: message, Percentage: &pct})
}

func (r *progressReporter) end() {
	r.emit(Progress{ID: r.id, Title: progressTitle, Done: true})
}

func (r *progressReporter) emit(p Progress) {
	if r.sink != nil {
		r.sink.Report(p)
	}
}
