package env

import "strings"

// Record is the environment configuration captured at start-up. The zero
// value has every key absent. A Record is never modified after Load.
type Record struct {
	values map[Key]string
}

// Snapshot is the serialisable view of a Record. Absent keys are nil.
type Snapshot struct {
	Domains             *string `json:"TF_NEXTIMAGE_DOMAINS,omitempty" yaml:"TF_NEXTIMAGE_DOMAINS,omitempty"`
	DeviceSizes         *string `json:"TF_NEXTIMAGE_DEVICE_SIZES,omitempty" yaml:"TF_NEXTIMAGE_DEVICE_SIZES,omitempty"`
	ImageSizes          *string `json:"TF_NEXTIMAGE_IMAGE_SIZES,omitempty" yaml:"TF_NEXTIMAGE_IMAGE_SIZES,omitempty"`
	SourceBucket        *string `json:"TF_NEXTIMAGE_SOURCE_BUCKET,omitempty" yaml:"TF_NEXTIMAGE_SOURCE_BUCKET,omitempty"`
	DebugUseLocalBucket *string `json:"__DEBUG__USE_LOCAL_BUCKET,omitempty" yaml:"__DEBUG__USE_LOCAL_BUCKET,omitempty"`
}

// Load captures the declared keys from lookup. Values are kept verbatim:
// multi-value keys are not split and nothing is defaulted.
func Load(lookup LookupFunc) Record {
	values := make(map[Key]string, len(declaredKeys))
	if lookup == nil {
		return Record{values: values}
	}
	for _, k := range declaredKeys {
		if value, ok := lookup(string(k)); ok {
			values[k] = value
		}
	}
	return Record{values: values}
}

// Get returns the value of k. Undeclared keys are always absent.
func (r Record) Get(k Key) (string, bool) {
	value, ok := r.values[k]
	return value, ok
}

// Require returns the value of k or an error wrapping ErrMissing or
// ErrUndeclared.
func (r Record) Require(k Key) (string, error) {
	if !k.Declared() {
		return "", undeclaredError(k)
	}
	value, ok := r.values[k]
	if !ok {
		return "", missingError(k)
	}
	return value, nil
}

// Typed accessors. Each returns the raw value and whether the key is set.
func (r Record) Domains() (string, bool) { return r.Get(Domains) }
func (r Record) DeviceSizes() (string, bool) { return r.Get(DeviceSizes) }
func (r Record) ImageSizes() (string, bool) { return r.Get(ImageSizes) }
func (r Record) SourceBucket() (string, bool) { return r.Get(SourceBucket) }
func (r Record) DebugUseLocalBucket() (string, bool) { return r.Get(DebugUseLocalBucket) }

// UseLocalBucket interprets the debug flag. Any present value other than an
// empty or negative word enables the local bucket.
func (r Record) UseLocalBucket() bool {
	value, ok := r.DebugUseLocalBucket()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// Present returns the keys that are set, in declaration order.
func (r Record) Present() []Key {
	out := make([]Key, 0, len(declaredKeys))
	for _, k := range declaredKeys {
		if _, ok := r.values[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Missing returns the keys that are absent, in declaration order.
func (r Record) Missing() []Key {
	out := make([]Key, 0, len(declaredKeys))
	for _, k := range declaredKeys {
		if _, ok := r.values[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Snapshot copies the record into its serialisable form.
func (r Record) Snapshot() Snapshot {
	return Snapshot{
		Domains:             r.pointer(Domains),
		DeviceSizes:         r.pointer(DeviceSizes),
		ImageSizes:          r.pointer(ImageSizes),
		SourceBucket:        r.pointer(SourceBucket),
		DebugUseLocalBucket: r.pointer(DebugUseLocalBucket),
	}
}

func (r Record) pointer(k Key) *string {
	value, ok := r.values[k]
	if !ok {
		return nil
	}
	return &value
}
