package enums

import "fmt"

// RecordSource identifies which collaborator wrote a raw record.
type RecordSource string

const (
	RecordSourceStorefront       RecordSource = "storefront"
	RecordSourceManual           RecordSource = "manual"
	RecordSourceExternalPlatform RecordSource = "external_platform"
	RecordSourceSeller           RecordSource = "seller"
)

var validRecordSources = []RecordSource{
	RecordSourceStorefront,
	RecordSourceManual,
	RecordSourceExternalPlatform,
	RecordSourceSeller,
}

// String implements fmt.Stringer.
func (r RecordSource) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecordSource.
func (r RecordSource) IsValid() bool {
	for _, candidate := range validRecordSources {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecordSource converts raw input into a RecordSource.
func ParseRecordSource(value string) (RecordSource, error) {
	for _, candidate := range validRecordSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record source %q", value)
}
