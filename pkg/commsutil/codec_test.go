package commsutil

import (
	"errors"
	"testing"
)

func TestEncodePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{
			name:  "simple map",
			input: map[string]string{"operation": "balance"},
			want:  `{"operation":"balance"}`,
		},
		{
			name:  "html is not escaped",
			input: map[string]string{"payload": "<a&b>"},
			want:  `{"payload":"<a&b>"}`,
		},
		{
			name:  "nil",
			input: nil,
			want:  "null",
		},
		{
			name:  "slice",
			input: []int{1, 2, 3},
			want:  "[1,2,3]",
		},
		{
			name:    "channel is not serializable",
			input:   make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePayload(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatal("commsutil:codec_test - expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
			}

			if got := string(data); got != tt.want {
				t.Errorf("commsutil:codec_test - EncodePayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	type envelope struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	}

	tests := []struct {
		name    string
		data    string
		want    envelope
		wantErr bool
	}{
		{name: "valid", data: `{"id":"1","operation":"balance"}`, want: envelope{ID: "1", Operation: "balance"}},
		{name: "unknown field", data: `{"id":"1","extra":true}`, wantErr: true},
		{name: "trailing value", data: `{"id":"1"} {"id":"2"}`, wantErr: true},
		{name: "invalid json", data: `{invalid}`, wantErr: true},
		{name: "empty data", data: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got envelope
			err := DecodePayload([]byte(tt.data), &got)

			if tt.wantErr {
				if err == nil {
					t.Fatal("commsutil:codec_test - expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("commsutil:codec_test - got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodePayload_EmptyIsSentinel(t *testing.T) {
	var v map[string]any
	if err := DecodePayload(nil, &v); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("commsutil:codec_test - err = %v, want ErrEmptyPayload", err)
	}
}
