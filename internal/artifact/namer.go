package artifact

import (
	"fmt"
	"strconv"
	"time"

	hashids "github.com/speps/go-hashids/v2"
)

// Extension is the fixed file extension appended to every generated name.
const Extension = ".png"

const (
	nameAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	nameMinLength = 15
	// Concatenated year, month, day, hour, minute, second with fixed widths.
	timestampLayout = "20060102150405"
)

// Namer derives collision-resistant blob names from wall-clock timestamps.
//
// The encoding is deterministic: the same second always yields the same name,
// so two completions within one second collide. That matches the upstream
// naming scheme and is accepted; callers must not rely on sub-second
// uniqueness.
type Namer struct {
	encoder *hashids.HashID
}

// NewNamer constructs a Namer with the fixed lowercase alphanumeric encoding.
func NewNamer() (*Namer, error) {
	data := hashids.NewData()
	data.Alphabet = nameAlphabet
	data.MinLength = nameMinLength

	encoder, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("artifact: building name encoder: %w", err)
	}
	return &Namer{encoder: encoder}, nil
}

// Name encodes the timestamp into a URL- and filesystem-safe blob name.
func (n *Namer) Name(t time.Time) (string, error) {
	numeric, err := strconv.ParseInt(t.Format(timestampLayout), 10, 64)
	if err != nil {
		return "", fmt.Errorf("artifact: timestamp out of encodable range: %w", err)
	}

	encoded, err := n.encoder.EncodeInt64([]int64{numeric})
	if err != nil {
		return "", fmt.Errorf("artifact: encoding name: %w", err)
	}
	return encoded + Extension, nil
}
