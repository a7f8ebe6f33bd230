package service

import (
	"context"
	"io"
	"sync"
)

// LineSink receives the output of the child one line at a time, in the order
// the stream delivered them. The line has no trailing newline.
type LineSink interface {
	WriteLine(ctx context.Context, line string)
}

// SinkFunc adapts a function to LineSink.
type SinkFunc func(ctx context.Context, line string)

func (f SinkFunc) WriteLine(ctx context.Context, line string) {
	f(ctx, line)
}

// WriterSink writes every line followed by a newline to w. Both streams may
// share one WriterSink.
type WriterSink struct {
	mx sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteLine(_ context.Context, line string) {
	s.mx.Lock()
	defer s.mx.Unlock()
	_, _ = io.WriteString(s.w, line+"\n")
}
