package limits

import (
	"testing"

	"github.com/flynn/noise"
	"github.com/stretchr/testify/assert"
)

// TestTagSizeMatchesCipher verifies that TagSize matches the overhead the
// ChaCha20-Poly1305 cipher actually adds.
func TestTagSizeMatchesCipher(t *testing.T) {
	var key [32]byte
	cipher := noise.CipherChaChaPoly.Cipher(key)

	for _, size := range []int{0, 1, 100, DefaultMTU} {
		sealed := cipher.Encrypt(nil, 0, nil, make([]byte, size))
		assert.Equal(t, size+TagSize, len(sealed), "plaintext size %d", size)
	}
}

func TestSizeHierarchy(t *testing.T) {
	assert.Equal(t, 28, DataMinSize)
	assert.Equal(t, MaxSegmentSize, MaxContentSize+DataHeaderSize+TagSize)
	assert.Less(t, DefaultMTU, MaxContentSize)
}

func TestValidatePlaintext(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"empty keepalive", 0, nil},
		{"mtu", DefaultMTU, nil},
		{"at limit", MaxContentSize, nil},
		{"over limit", MaxContentSize + 1, ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlaintext(make([]byte, tt.size))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDataMessage(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"empty", 0, ErrMessageTooShort},
		{"header only", DataHeaderSize, ErrMessageTooShort},
		{"one byte short", DataMinSize - 1, ErrMessageTooShort},
		{"keepalive", DataMinSize, nil},
		{"max segment", MaxSegmentSize, nil},
		{"oversize", MaxSegmentSize + 1, ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDataMessage(make([]byte, tt.size))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessageSize(t *testing.T) {
	assert.NoError(t, ValidateMessageSize(nil, 0))
	assert.NoError(t, ValidateMessageSize(make([]byte, 10), 10))

	err := ValidateMessageSize(make([]byte, 11), 10)
	assert.ErrorIs(t, err, ErrMessageTooLarge)
	assert.Contains(t, err.Error(), "size 11 exceeds limit 10")
}
