package gofactor

import (
	"fmt"
	"io"
	"strings"
)

// FactorStream is a pipeline of factored entries. Each stage owns the
// entries it pulls from its inlet until it reclaims or forwards them.
type FactorStream struct {
	Outlet chan *Entry
}

func NewFactorStream() *FactorStream {
	stream := &FactorStream{
		Outlet: make(chan *Entry),
	}
	return stream
}

// StreamEntry starts a stream that emits a copy of the given entry and closes.
func StreamEntry(ent *Entry) *FactorStream {
	next := NewFactorStream()

	go func() {
		next.Outlet <- ent.MakeCopy()
		next.Close()
	}()

	return next
}

func (stream *FactorStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *FactorStream) PushEntry(ent *Entry) {
	stream.Outlet <- ent.MakeCopy()
}

func (stream *FactorStream) PullEntry() *Entry {
	ent := <-stream.Outlet
	return ent
}

// PullAll drains this stream, reclaiming every entry and returning the count.
func (stream *FactorStream) PullAll() int {
	count := int(0)
	for ent := range stream.Outlet {
		count++
		ent.Reclaim()
	}
	return count
}

func (stream *FactorStream) Print(
	out io.WriteCloser,
	opts PrintOpts) *FactorStream {

	next := &FactorStream{
		Outlet: make(chan *Entry, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for ent := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
			}
			buf.WriteByte(',')

			count++
			fmt.Fprintf(&buf, "%06d,", count)
			ent.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- ent
		}
		out.Close()
		next.Close()
	}()

	return next
}

// AddTo forwards entries newly added to target, reclaiming the rest.
func (stream *FactorStream) AddTo(target NumberAdder) *FactorStream {
	next := &FactorStream{
		Outlet: make(chan *Entry, 1),
	}

	go func() {
		for ent := range stream.Outlet {
			wasAdded := target.TryAddNumber(ent)
			if wasAdded {
				next.Outlet <- ent
			} else {
				ent.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}

func SelectFromCatalog(cat Catalog, sel Selector) *FactorStream {
	next := &FactorStream{
		Outlet: make(chan *Entry, 1),
	}

	onHit := make(chan *Entry, 4)

	go func() {
		cat.Select(sel, onHit)
		close(onHit)
	}()

	go func() {
		for ent := range onHit {
			if sel.SelectsEntry(ent) {
				next.Outlet <- ent
			} else {
				ent.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}

func (stream *FactorStream) SelectFromStream(sel Selector) *FactorStream {
	next := &FactorStream{
		Outlet: make(chan *Entry, 1),
	}

	go func() {
		for ent := range stream.Outlet {
			if sel.SelectsEntry(ent) {
				next.Outlet <- ent
			} else {
				ent.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}
