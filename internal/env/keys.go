package env

// Key names a variable of the environment contract.
type Key string

const (
	Domains             Key = "TF_NEXTIMAGE_DOMAINS"
	DeviceSizes         Key = "TF_NEXTIMAGE_DEVICE_SIZES"
	ImageSizes          Key = "TF_NEXTIMAGE_IMAGE_SIZES"
	SourceBucket        Key = "TF_NEXTIMAGE_SOURCE_BUCKET"
	DebugUseLocalBucket Key = "__DEBUG__USE_LOCAL_BUCKET"
)

var declaredKeys = []Key{Domains, DeviceSizes, ImageSizes, SourceBucket, DebugUseLocalBucket}

// Keys returns the declared keys in declaration order.
func Keys() []Key {
	out := make([]Key, len(declaredKeys))
	copy(out, declaredKeys)
	return out
}

// String returns the variable name.
func (k Key) String() string { return string(k) }

// Declared reports whether k belongs to the contract.
func (k Key) Declared() bool {
	for _, declared := range declaredKeys {
		if k == declared {
			return true
		}
	}
	return false
}

// ParseKey converts a variable name into a declared Key.
func ParseKey(name string) (Key, error) {
	k := Key(name)
	if !k.Declared() {
		return "", undeclaredError(k)
	}
	return k, nil
}
