package openai_provider

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

var donePayload = []byte("[DONE]")

// ChunkDecoder reads a line-delimited JSON stream (plain NDJSON or SSE
// "data:" framing) and yields one decoded payload per call. Lines that fail
// to decode are skipped; a chat stream should never die over one garbled
// line. The sequence is finite and non-restartable.
type ChunkDecoder struct {
	scanner *bufio.Scanner
	done    bool
}

// NewChunkDecoder wraps r. The decoder does not close r.
func NewChunkDecoder(r io.Reader) *ChunkDecoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ChunkDecoder{scanner: sc}
}

// Next decodes the next well-formed payload into v. It returns io.EOF once
// the stream is exhausted or a terminator line was seen.
func (d *ChunkDecoder) Next(v interface{}) error {
	if d.done {
		return io.EOF
	}
	for d.scanner.Scan() {
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if after, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			line = bytes.TrimSpace(after)
		}
		if bytes.Equal(line, donePayload) {
			d.done = true
			return io.EOF
		}
		if err := json.Unmarshal(line, v); err != nil {
			continue // drop malformed chunk, keep the stream alive
		}
		return nil
	}
	d.done = true
	if err := d.scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
