package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/allisson/credstore/internal/errors"
)

// ErrCorruptRecord indicates a stored value that can no longer be decoded.
var ErrCorruptRecord = apperrors.Wrap(apperrors.ErrIO, "corrupt storage record")

var (
	recordEncMode cbor.EncMode
	recordDecMode cbor.DecMode
)

func init() {
	var err error

	// Core deterministic encoding keeps records byte-stable across writes of equal values.
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	if recordEncMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("storage: invalid cbor encoding options: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 16,
	}
	if recordDecMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("storage: invalid cbor decoding options: %v", err))
	}
}

// MarshalRecord encodes a record as deterministic CBOR with RFC 3339 timestamps.
func MarshalRecord(v any) ([]byte, error) {
	data, err := recordEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

// UnmarshalRecord decodes CBOR produced by MarshalRecord into v.
func UnmarshalRecord(data []byte, v any) error {
	if err := recordDecMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return nil
}
