package env

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func fullLookup() LookupFunc {
	return MapLookup(map[string]string{
		"TF_NEXTIMAGE_DOMAINS":       "example.com,cdn.example.com",
		"TF_NEXTIMAGE_DEVICE_SIZES":  "640,750",
		"TF_NEXTIMAGE_IMAGE_SIZES":   "16,32",
		"TF_NEXTIMAGE_SOURCE_BUCKET": "assets-bucket",
		"__DEBUG__USE_LOCAL_BUCKET":  "true",
		"SOME_OTHER_VAR":             "ignored",
	})
}

func TestLoadCapturesDeclaredKeys(t *testing.T) {
	rec := Load(fullLookup())

	for _, k := range Keys() {
		if _, ok := rec.Get(k); !ok {
			t.Fatalf("expected %s to be present", k)
		}
	}

	domains, ok := rec.Domains()
	if !ok || domains != "example.com,cdn.example.com" {
		t.Fatalf("expected domains kept verbatim, got %q (present=%v)", domains, ok)
	}
}

func TestLoadAllAbsentIsValid(t *testing.T) {
	rec := Load(MapLookup(nil))

	if got := rec.Present(); len(got) != 0 {
		t.Fatalf("expected no present keys, got %v", got)
	}
	if got := rec.Missing(); !slices.Equal(got, Keys()) {
		t.Fatalf("expected every key missing, got %v", got)
	}
	if rec.UseLocalBucket() {
		t.Fatalf("expected local bucket disabled when flag is absent")
	}
}

func TestLoadNilLookup(t *testing.T) {
	rec := Load(nil)
	if _, ok := rec.SourceBucket(); ok {
		t.Fatalf("expected source bucket absent")
	}
}

func TestZeroRecord(t *testing.T) {
	var rec Record
	if _, ok := rec.ImageSizes(); ok {
		t.Fatalf("expected zero record to report absent")
	}
	if _, err := rec.Require(ImageSizes); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}

func TestEmptyValueIsPresent(t *testing.T) {
	rec := Load(MapLookup(map[string]string{"TF_NEXTIMAGE_SOURCE_BUCKET": ""}))

	value, ok := rec.SourceBucket()
	if !ok {
		t.Fatalf("expected empty value to count as present")
	}
	if value != "" {
		t.Fatalf("expected empty value, got %q", value)
	}
}

func TestUndeclaredKeyIsNotCaptured(t *testing.T) {
	rec := Load(fullLookup())

	if _, ok := rec.Get(Key("SOME_OTHER_VAR")); ok {
		t.Fatalf("expected undeclared key to be absent from the record")
	}
	if _, err := rec.Require(Key("SOME_OTHER_VAR")); !errors.Is(err, ErrUndeclared) {
		t.Fatalf("expected ErrUndeclared, got %v", err)
	}
}

// useBucket stands in for a consumer that needs a definite bucket name.
func useBucket(name string) string { return "s3://" + name }

func TestGuardedSourceBucketRead(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		rec := Load(fullLookup())
		bucket, ok := rec.SourceBucket()
		if !ok {
			t.Fatalf("expected bucket to be present")
		}
		if got := useBucket(bucket); got != "s3://assets-bucket" {
			t.Fatalf("unexpected result %s", got)
		}
	})

	t.Run("absent", func(t *testing.T) {
		rec := Load(MapLookup(nil))
		bucket, err := rec.Require(SourceBucket)
		if !errors.Is(err, ErrMissing) {
			t.Fatalf("expected ErrMissing, got %v", err)
		}
		if bucket != "" {
			t.Fatalf("expected empty bucket on error, got %q", bucket)
		}
	})
}

func TestUseLocalBucket(t *testing.T) {
	cases := map[string]bool{
		"true":  true,
		"1":     true,
		"yes":   true,
		"local": true,
		"":      false,
		"0":     false,
		"FALSE": false,
		" off ": false,
		"no":    false,
	}
	for value, want := range cases {
		rec := Load(MapLookup(map[string]string{"__DEBUG__USE_LOCAL_BUCKET": value}))
		if got := rec.UseLocalBucket(); got != want {
			t.Fatalf("value %q: expected %v, got %v", value, want, got)
		}
	}
}

func TestRecordIsNotAffectedByLaterLookupChanges(t *testing.T) {
	vars := map[string]string{"TF_NEXTIMAGE_IMAGE_SIZES": "16"}
	rec := Load(MapLookup(vars))
	vars["TF_NEXTIMAGE_IMAGE_SIZES"] = "32"

	if got, _ := rec.ImageSizes(); got != "16" {
		t.Fatalf("expected snapshot value 16, got %s", got)
	}
}

func TestSnapshotOmitsAbsentKeys(t *testing.T) {
	rec := Load(MapLookup(map[string]string{"TF_NEXTIMAGE_SOURCE_BUCKET": "assets"}))

	data, err := json.Marshal(rec.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if string(data) != `{"TF_NEXTIMAGE_SOURCE_BUCKET":"assets"}` {
		t.Fatalf("unexpected snapshot %s", data)
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("TF_NEXTIMAGE_DOMAINS")
	if err != nil || k != Domains {
		t.Fatalf("expected Domains, got %q (%v)", k, err)
	}
	if _, err := ParseKey("PATH"); !errors.Is(err, ErrUndeclared) {
		t.Fatalf("expected ErrUndeclared, got %v", err)
	}
}
