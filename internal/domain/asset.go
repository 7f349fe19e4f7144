package domain

import "strings"

// AssetClass is the broad category an asset belongs to.
type AssetClass string

const (
	AssetClassCrypto     AssetClass = "CRYPTO"
	AssetClassFiat       AssetClass = "FIAT"
	AssetClassStock      AssetClass = "STOCK"
	AssetClassRealEstate AssetClass = "REAL_ESTATE"
	AssetClassCommodity  AssetClass = "COMMODITY"
	AssetClassOther      AssetClass = "OTHER"
)

var assetClasses = []AssetClass{
	AssetClassCrypto,
	AssetClassFiat,
	AssetClassStock,
	AssetClassRealEstate,
	AssetClassCommodity,
	AssetClassOther,
}

// AssetClasses returns all known asset classes.
func AssetClasses() []AssetClass {
	out := make([]AssetClass, len(assetClasses))
	copy(out, assetClasses)
	return out
}

// ParseAssetClass returns the class for s, case-insensitively.
func ParseAssetClass(s string) (AssetClass, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range assetClasses {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ValuationSource tells where the price of an asset comes from.
type ValuationSource string

const (
	ValuationSourceOracle ValuationSource = "oracle" // priced by the external oracle
	ValuationSourceManual ValuationSource = "manual" // priced only from recorded historical rates
)

// Asset describes something that can be held. Symbol is the identity.
type Asset struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	Class           AssetClass      `json:"class"`
	ValuationSource ValuationSource `json:"valuationSource"`
	ExternalID      string          `json:"externalId,omitempty"`
	Currency        string          `json:"currency"`
}

// DisplayName returns the name, or the symbol when no name is set.
func (a Asset) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Symbol
}

// IsCash reports whether the asset is the given base currency itself.
func (a Asset) IsCash(baseCurrency string) bool {
	return a.Class == AssetClassFiat && strings.EqualFold(a.Symbol, baseCurrency)
}

// NormalizeSymbol upper-cases and trims a symbol or target key.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
