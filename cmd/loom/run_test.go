package main

import (
	"reflect"
	"testing"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:  "single pair",
			pairs: []string{"industry=agro"},
			want:  map[string]any{"industry": "agro"},
		},
		{
			name:  "multiple pairs",
			pairs: []string{"topic=storage", "tone=formal"},
			want:  map[string]any{"topic": "storage", "tone": "formal"},
		},
		{
			name:  "value containing equals",
			pairs: []string{"query=a=b"},
			want:  map[string]any{"query": "a=b"},
		},
		{
			name:  "empty value",
			pairs: []string{"industry="},
			want:  map[string]any{"industry": ""},
		},
		{
			name:  "no pairs",
			pairs: nil,
			want:  map[string]any{},
		},
		{
			name:    "missing equals",
			pairs:   []string{"industry"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=agro"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseParams() accepted invalid input")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseParams() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseParams() = %v, want %v", got, tt.want)
			}
		})
	}
}
