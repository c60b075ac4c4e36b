package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "player_idle", false},
		{"with dash", "player-idle", false},
		{"with dot", "icons.save", false},
		{"unicode", "héros", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "atlas.png", false},
		{"valid nested", "out/sprites/atlas", false},
		{"valid absolute", "/tmp/atlas.png", false},
		{"valid with dots", "../assets/atlas.json", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}
