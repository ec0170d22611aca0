package main

import "testing"

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args    []string
		cmd     string
		version int
		wantErr bool
	}{
		{args: nil, cmd: "up"},
		{args: []string{"down"}, cmd: "down"},
		{args: []string{"version"}, cmd: "version"},
		{args: []string{"force", "1"}, cmd: "force", version: 1},
		{args: []string{"force"}, wantErr: true},
		{args: []string{"force", "x"}, wantErr: true},
		{args: []string{"sideways"}, wantErr: true},
	}
	for _, tt := range tests {
		cmd, version, err := parseArgs(tt.args)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseArgs(%v): expected error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseArgs(%v): unexpected error %v", tt.args, err)
		}
		if cmd != tt.cmd || version != tt.version {
			t.Fatalf("parseArgs(%v) = %s %d", tt.args, cmd, version)
		}
	}
}
