package piper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// wyomingVersion is sent in every event header.
const wyomingVersion = "1.5.2"

// event is one Wyoming protocol message. On the wire it is a JSON header
// line, then data_length bytes of JSON data, then payload_length bytes of
// binary payload.
type event struct {
	Type    string
	Data    map[string]any
	Payload []byte
}

type eventHeader struct {
	Type          string         `json:"type"`
	Version       string         `json:"version,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	DataLength    int            `json:"data_length,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

// writeEvent encodes e to w.
func writeEvent(w io.Writer, e event) error {
	hdr := eventHeader{Type: e.Type, Version: wyomingVersion, PayloadLength: len(e.Payload)}

	var data []byte
	if len(e.Data) > 0 {
		var err error
		if data, err = json.Marshal(e.Data); err != nil {
			return fmt.Errorf("encoding %s data: %w", e.Type, err)
		}
		hdr.DataLength = len(data)
	}

	line, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("encoding %s header: %w", e.Type, err)
	}

	bw := bufio.NewWriter(w)
	bw.Write(line)
	bw.WriteByte('\n')
	bw.Write(data)
	bw.Write(e.Payload)
	return bw.Flush()
}

// eventReader decodes consecutive events from one connection.
type eventReader struct {
	r *bufio.Reader
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReader(r)}
}

// next reads one event. Data sent inline in the header and data sent as a
// separate block are merged.
func (er *eventReader) next() (*event, error) {
	line, err := er.r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var hdr eventHeader
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, fmt.Errorf("invalid wyoming header %q: %w", line, err)
	}

	e := &event{Type: hdr.Type, Data: hdr.Data}
	if hdr.DataLength > 0 {
		raw := make([]byte, hdr.DataLength)
		if _, err := io.ReadFull(er.r, raw); err != nil {
			return nil, fmt.Errorf("reading %s data: %w", hdr.Type, err)
		}
		var extra map[string]any
		if err := json.Unmarshal(raw, &extra); err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", hdr.Type, err)
		}
		if e.Data == nil {
			e.Data = extra
		} else {
			for k, v := range extra {
				e.Data[k] = v
			}
		}
	}
	if hdr.PayloadLength > 0 {
		e.Payload = make([]byte, hdr.PayloadLength)
		if _, err := io.ReadFull(er.r, e.Payload); err != nil {
			return nil, fmt.Errorf("reading %s payload: %w", hdr.Type, err)
		}
	}
	return e, nil
}

// intField reads a numeric field from event data.
func intField(data map[string]any, key string, fallback int) int {
	if v, ok := data[key].(float64); ok && v > 0 {
		return int(v)
	}
	return fallback
}
