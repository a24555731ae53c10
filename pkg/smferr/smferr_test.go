package smferr

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int64
		wantErr bool
	}{
		{"lower bound", 0, false},
		{"upper bound", 127, false},
		{"below", -1, true},
		{"above", 128, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRange("velocity", tt.value, 0, 127)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckRange(%d) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("expected ErrOutOfRange, got %v", err)
			}
			var re *RangeError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RangeError, got %T", err)
			}
			if re.Field != "velocity" || re.Value != tt.value {
				t.Errorf("unexpected RangeError contents: %+v", re)
			}
		})
	}
}

func TestWrappedKinds(t *testing.T) {
	err := Malformed("truncated at offset %d", 3)
	if !errors.Is(err, ErrMalformedData) {
		t.Errorf("Malformed should wrap ErrMalformedData: %v", err)
	}
	if !strings.Contains(err.Error(), "offset 3") {
		t.Errorf("Malformed should keep the reason: %v", err)
	}

	err = Null("writer")
	if !errors.Is(err, ErrNullArgument) {
		t.Errorf("Null should wrap ErrNullArgument: %v", err)
	}
	if !strings.Contains(err.Error(), "writer") {
		t.Errorf("Null should name the argument: %v", err)
	}
}
