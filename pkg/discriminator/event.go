package discriminator

import (
	"encoding/base64"
	"strings"

	"github.com/cockroachdb/errors"
)

// ProgramDataPrefix starts the log line that carries an emitted event.
const ProgramDataPrefix = "Program data: "

// ErrNotEventLog is returned for log lines that do not carry event data.
var ErrNotEventLog = errors.New("discriminator: not a program data log")

// ParseEventLog extracts the raw event bytes from a "Program data: <base64>"
// log line.
func ParseEventLog(line string) ([]byte, error) {
	payload, ok := strings.CutPrefix(line, ProgramDataPrefix)
	if !ok {
		return nil, ErrNotEventLog
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, errors.Wrap(err, "decode event payload")
	}
	return data, nil
}

// DecodeEventLog parses an event log line and decodes it with r.
func DecodeEventLog[T any](r *Registry[T], line string) (T, string, error) {
	data, err := ParseEventLog(line)
	if err != nil {
		var zero T
		return zero, "", err
	}
	return r.DecodeNamed(data)
}
