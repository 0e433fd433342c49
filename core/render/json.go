// Package render — JSON shard renderer.
// A shard is a one-element array holding an object that maps document id
// to record: [{"<id>": {"title": ..., "sentences": [{"text": ...}]}}].
// Keys keep record order, which encoding/json maps cannot express, so the
// object is written member by member.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// JSONRenderer produces shard JSON from records.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render encodes records as one shard. A repeated id keeps its first
// position and takes the later record's value.
func (r *JSONRenderer) Render(records []core.NormalizedRecord) ([]byte, error) {
	records = dedupe(records)

	var buf bytes.Buffer
	buf.WriteString("[{")
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  ")
		if err := encodeValue(&buf, rec.ID); err != nil {
			return nil, fmt.Errorf("encoding id %q: %w", rec.ID, err)
		}
		buf.WriteString(": ")
		if err := encodeValue(&buf, rec); err != nil {
			return nil, fmt.Errorf("encoding record %q: %w", rec.ID, err)
		}
	}
	if len(records) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}]\n")
	return buf.Bytes(), nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// encodeValue writes v as compact JSON without HTML escaping.
func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func dedupe(records []core.NormalizedRecord) []core.NormalizedRecord {
	pos := make(map[string]int, len(records))
	out := make([]core.NormalizedRecord, 0, len(records))
	for _, rec := range records {
		if i, ok := pos[rec.ID]; ok {
			out[i] = rec
			continue
		}
		pos[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}

// DecodeShard reads a shard back into records, preserving key order.
func DecodeShard(data []byte) ([]core.NormalizedRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var records []core.NormalizedRecord
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("reading shard key: %w", err)
			}
			id, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: shard key is %T", core.ErrMalformedPayload, tok)
			}
			rec := core.NormalizedRecord{ID: id}
			if err := dec.Decode(&rec); err != nil {
				return nil, fmt.Errorf("decoding record %q: %w", id, err)
			}
			rec.ID = id
			records = append(records, rec)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after shard", core.ErrMalformedPayload)
	}
	return records, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading shard: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", core.ErrMalformedPayload, want, tok)
	}
	return nil
}
