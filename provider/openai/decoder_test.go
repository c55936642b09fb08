package openai_provider

import (
	"io"
	"strings"
	"testing"
)

func TestChunkDecoderSkipsMalformedLines(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"n": 1}`,
		`data: {garbled`,
		``,
		`{"n": 2}`,
		`data: [DONE]`,
		`data: {"n": 3}`,
	}, "\n")

	dec := NewChunkDecoder(strings.NewReader(stream))
	var got []int
	for {
		var v struct {
			N int `json:"n"`
		}
		err := dec.Next(&v)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, v.N)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected payloads [1 2], got %v", got)
	}

	// sequence is non-restartable once done
	var v map[string]interface{}
	if err := dec.Next(&v); err != io.EOF {
		t.Fatalf("expected EOF after terminator, got %v", err)
	}
}

func TestChunkDecoderEmptyStream(t *testing.T) {
	dec := NewChunkDecoder(strings.NewReader(""))
	var v map[string]interface{}
	if err := dec.Next(&v); err != io.EOF {
		t.Fatalf("expected EOF on empty stream, got %v", err)
	}
}
