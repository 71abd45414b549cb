package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/flame-sensor/internal/logic"
)

// ErrMalformed is returned for bridge replies that cannot be parsed.
var ErrMalformed = errors.New("malformed reading")

// ParseLine parses one bridge reply of the form "right,left,middle".
// Surrounding whitespace and a trailing CR are ignored.
func ParseLine(line string) (logic.Sample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != logic.NumChannels {
		return logic.Sample{}, fmt.Errorf("%w: want %d fields, got %d in %q",
			ErrMalformed, logic.NumChannels, len(fields), line)
	}

	var s logic.Sample
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return logic.Sample{}, fmt.Errorf("%w: %s field %q", ErrMalformed, logic.Channel(i), f)
		}
		s[i] = v
	}
	return s, nil
}
