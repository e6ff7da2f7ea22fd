package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input   string
		want    Algorithm
		wantErr error
	}{
		{input: "aes-gcm", want: AESGCM},
		{input: "chacha20-poly1305", want: ChaCha20},
		{input: "aes-cbc", wantErr: ErrUnsupportedAlgorithm},
		{input: "", wantErr: ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
