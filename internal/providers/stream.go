package providers

import (
	"context"
	"errors"
	"io"
)

// recvFunc returns the next piece of text, io.EOF at the end of the stream.
type recvFunc func() (string, error)

// pipeStream forwards chunks from recv to the returned channel as they
// arrive. The channel is unbuffered so no output is held back. closeFn runs
// once the producer is done.
func pipeStream(ctx context.Context, recv recvFunc, closeFn func(), mapErr func(error) error) <-chan Chunk {
	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer closeFn()
		for {
			text, err := recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					err = ErrStreamAborted
				} else if mapErr != nil {
					err = mapErr(err)
				}
				select {
				case out <- Chunk{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if text == "" {
				continue
			}
			select {
			case out <- Chunk{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Collect drains a stream into a single string.
func Collect(stream <-chan Chunk) (string, error) {
	var buf []byte
	for c := range stream {
		if c.Err != nil {
			return string(buf), c.Err
		}
		buf = append(buf, c.Text...)
	}
	return string(buf), nil
}
