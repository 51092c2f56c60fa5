package errors

import (
	"math"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "farm", false},
		{"dashed", "elevator-sea", false},
		{"underscore", "feed_mills", false},
		{"digits", "tier2", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"uppercase", "Farm", true},
		{"leading dash", "-farm", true},
		{"double dash", "farm--a", true},
		{"slash", "farm/a", true},
		{"space", "farm a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier("node id", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStudyName(t *testing.T) {
	if err := ValidateStudyName("grain"); err != nil {
		t.Errorf("ValidateStudyName(grain) error = %v", err)
	}
	err := ValidateStudyName("../etc")
	if err == nil {
		t.Fatal("ValidateStudyName(../etc) should fail")
	}
	if !Is(err, ErrCodeInvalidStudy) {
		t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidStudy)
	}
}

func TestValidateStudyFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"toml", "grain.toml", false},
		{"yaml", "fish.yaml", false},
		{"empty", "", true},
		{"path", "dir/grain.toml", true},
		{"backslash", "dir\\grain.toml", true},
		{"hidden", ".grain.toml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStudyFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStudyFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
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
		{"relative file", "out/grain.svg", false},
		{"absolute", "/tmp/grain.svg", false},
		{"empty", "", true},
		{"traversal", "out/../../etc/passwd", true},
		{"backslash", "out\\grain.svg", true},
		{"null byte", "out\x00.svg", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFactor(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		max     float64
		wantErr bool
	}{
		{"one", 1, 0, false},
		{"at max", 8, 8, false},
		{"unbounded", 100, 0, false},

		{"zero", 0, 0, true},
		{"negative", -1, 0, true},
		{"above max", 8.5, 8, true},
		{"nan", math.NaN(), 0, true},
		{"inf", math.Inf(1), 0, true},
		{"negative inf", math.Inf(-1), 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFactor("zoom", tt.input, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFactor(%v, %v) error = %v, wantErr %v", tt.input, tt.max, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}
