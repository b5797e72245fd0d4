package enums

import "fmt"

// AssetType classifies the game assets traded on the platform. Campaigns
// raise funds for one asset class and every NFT carries exactly one.
type AssetType string

const (
	AssetTypeArena  AssetType = "arena"
	AssetTypeDriver AssetType = "driver"
	AssetTypeKart   AssetType = "kart"
)

var validAssetTypes = []AssetType{
	AssetTypeArena,
	AssetTypeDriver,
	AssetTypeKart,
}

// String implements fmt.Stringer.
func (a AssetType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssetType.
func (a AssetType) IsValid() bool {
	for _, candidate := range validAssetTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssetType converts raw input into an AssetType.
func ParseAssetType(value string) (AssetType, error) {
	for _, candidate := range validAssetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset type %q", value)
}
