package gcp

import "testing"

func TestResolveObjectStorageConfigFromEnv(t *testing.T) {
	cases := []struct {
		name     string
		env      map[string]string
		wantMode ObjectStorageMode
		wantErr  bool
	}{
		{name: "default local", env: map[string]string{}, wantMode: ObjectStorageModeLocal},
		{name: "bucket implies gcs", env: map[string]string{"MATERIAL_GCS_BUCKET_NAME": "mats"}, wantMode: ObjectStorageModeGCS},
		{name: "emulator fallback", env: map[string]string{"STORAGE_EMULATOR_HOST": "http://fake-gcs:4443"}, wantMode: ObjectStorageModeGCSEmulator},
		{name: "explicit emulator without host", env: map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator"}, wantErr: true},
		{name: "bad emulator host", env: map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator", "STORAGE_EMULATOR_HOST": "fake-gcs"}, wantErr: true},
		{name: "unknown mode", env: map[string]string{"OBJECT_STORAGE_MODE": "s3"}, wantErr: true},
		{name: "bad public url", env: map[string]string{"PUBLIC_BASE_URL": "nope"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"OBJECT_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "MATERIAL_GCS_BUCKET_NAME", "LOCAL_STORAGE_DIR", "PUBLIC_BASE_URL"} {
				t.Setenv(k, "")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := ResolveObjectStorageConfigFromEnv()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got cfg %+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Mode != tc.wantMode {
				t.Fatalf("mode = %q, want %q", cfg.Mode, tc.wantMode)
			}
			if cfg.LocalDir != "uploads" {
				t.Fatalf("expected default local dir, got %q", cfg.LocalDir)
			}
		})
	}
}
