package backendstore

import "testing"

// TestParseBucketConfig covers the accepted bucket reference formats.
func TestParseBucketConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantType PlatformType
		wantErr  bool
	}{
		{
			name:     "s3 URI",
			input:    "s3://my-bucket",
			wantName: "my-bucket",
			wantType: S3Type,
		},
		{
			name:     "gcs URI",
			input:    "gs://my-gcs-bucket",
			wantName: "my-gcs-bucket",
			wantType: GCSType,
		},
		{
			name:     "colon format",
			input:    "s3:colon-bucket",
			wantName: "colon-bucket",
			wantType: S3Type,
		},
		{
			name:     "bare name defaults to s3",
			input:    "plain-bucket",
			wantName: "plain-bucket",
			wantType: S3Type,
		},
		{
			name:     "whitespace trimmed",
			input:    "  s3://padded-bucket ",
			wantName: "padded-bucket",
			wantType: S3Type,
		},
		{
			name:    "unsupported scheme",
			input:   "ftp://nope",
			wantErr: true,
		},
		{
			name:    "empty bucket name",
			input:   "s3://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBucketConfig(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBucketConfig(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Name != tt.wantName || got.Type != tt.wantType {
				t.Errorf("ParseBucketConfig(%q) = %+v, want %s/%s", tt.input, got, tt.wantName, tt.wantType)
			}
		})
	}
}
