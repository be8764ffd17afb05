package scheduler

import (
	"io"
	"log"
)

// testLogger returns a *log.Logger that sets *flag to true the first
// time it is written to, and discards the text otherwise.
func testLogger(flag *bool) *log.Logger {
	return log.New(flagWriter{flag}, "", 0)
}

type flagWriter struct{ flag *bool }

func (w flagWriter) Write(p []byte) (int, error) {
	*w.flag = true
	return io.Discard.Write(p)
}
