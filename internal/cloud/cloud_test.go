package cloud

import (
	"context"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		input   string
		scheme  string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://my-bucket/ceph/ceph-stats.2024-01-01.log.gz", "s3", "my-bucket", "ceph/ceph-stats.2024-01-01.log.gz", false},
		{"s3://my-bucket/path/to/prefix/", "s3", "my-bucket", "path/to/prefix", false},
		{"gs://my-bucket/prefix", "gs", "my-bucket", "prefix", false},
		{"s3://bucket/", "s3", "bucket", "", false},
		{"gs://bucket", "gs", "bucket", "", false},
		{"  s3://bucket/path  ", "s3", "bucket", "path", false},
		{"http://invalid", "", "", "", true},
		{"", "", "", "", true},
		{"s3://", "", "", "", true},
		{"gs:///prefix", "", "", "", true},
		{"/var/log/ceph/x.log", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := ParseURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loc.Scheme != tt.scheme {
				t.Errorf("scheme = %q, want %q", loc.Scheme, tt.scheme)
			}
			if loc.Bucket != tt.bucket {
				t.Errorf("bucket = %q, want %q", loc.Bucket, tt.bucket)
			}
			if loc.Key != tt.key {
				t.Errorf("key = %q, want %q", loc.Key, tt.key)
			}
		})
	}
}

func TestLocationJoinAndString(t *testing.T) {
	loc := Location{Scheme: "s3", Bucket: "b", Key: "plots/host1"}
	if got := loc.Join("x.dat"); got != "plots/host1/x.dat" {
		t.Errorf("Join = %q", got)
	}
	if got := loc.String(); got != "s3://b/plots/host1" {
		t.Errorf("String = %q", got)
	}
	root := Location{Scheme: "gs", Bucket: "b"}
	if got := root.Join("x.dat"); got != "x.dat" {
		t.Errorf("Join = %q", got)
	}
	if got := root.String(); got != "gs://b" {
		t.Errorf("String = %q", got)
	}
}

func TestIsURL(t *testing.T) {
	for in, want := range map[string]bool{
		"s3://b/k":          true,
		" gs://b":           true,
		"/var/log/x.log":    false,
		"-":                 false,
		"s3:/missing-slash": false,
	} {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewBackendUnsupportedScheme(t *testing.T) {
	_, err := NewBackend(context.Background(), Location{Scheme: "ftp", Bucket: "bucket"})
	if err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
