package quotes

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one decoded server-sent event.
type sseEvent struct {
	Name string
	Data string
}

// sseDecoder reads text/event-stream frames off a response body.
// It implements the subset of the SSE wire format the backend emits:
// "event:" and "data:" fields, comment lines, and blank-line dispatch.
// Multiple data lines in one frame are joined with newlines per the format.
type sseDecoder struct {
	scanner *bufio.Scanner
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	scanner := bufio.NewScanner(r)
	// Quotes are small; 64KiB leaves generous headroom for one frame line.
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	return &sseDecoder{scanner: scanner}
}

// Next blocks until a complete event has been read or the stream ends.
// Returns io.EOF when the server closes the connection cleanly, or the
// underlying read error otherwise.
func (d *sseDecoder) Next() (sseEvent, error) {
	var event sseEvent
	var data []string
	seen := false

	for d.scanner.Scan() {
		line := d.scanner.Text()

		// Blank line dispatches the accumulated event, but only when the
		// frame carried at least one field.
		if line == "" {
			if seen {
				event.Data = strings.Join(data, "\n")
				return event, nil
			}
			continue
		}

		// Comment lines (often used as keep-alives) are ignored.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitSSEField(line)
		switch field {
		case "event":
			event.Name = value
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		default:
			// id and retry are not used; unknown fields are ignored.
		}
	}

	if err := d.scanner.Err(); err != nil {
		return sseEvent{}, err
	}

	// A final unterminated frame is discarded, matching browser behavior.
	return sseEvent{}, io.EOF
}

// splitSSEField splits "field: value" per the event-stream grammar: the
// field name runs to the first colon, and a single leading space of the
// value is stripped.
func splitSSEField(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}

	field = line[:idx]
	value = line[idx+1:]
	value = strings.TrimPrefix(value, " ")

	return field, value
}
