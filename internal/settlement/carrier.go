package settlement

import "strings"

const (
	CarrierSKT = "SKT"
	CarrierKT  = "KT"
	CarrierLGU = "LGU+"
)

var carrierAliases = map[string]string{
	"sk":   CarrierSKT,
	"skt":  CarrierSKT,
	"kt":   CarrierKT,
	"lg":   CarrierLGU,
	"lgu":  CarrierLGU,
	"lgu+": CarrierLGU,
}

// NormalizeCarrier maps known aliases case-insensitively to their canonical
// code and uppercases anything else. NormalizeCarrier(NormalizeCarrier(s))
// == NormalizeCarrier(s) for every s.
func NormalizeCarrier(raw string) string {
	trimmed := strings.TrimSpace(raw)
	key := strings.ToLower(strings.Join(strings.Fields(trimmed), ""))
	if code, ok := carrierAliases[key]; ok {
		return code
	}
	return strings.ToUpper(trimmed)
}

// IsKnownCarrier reports whether code is one of the canonical carriers.
func IsKnownCarrier(code string) bool {
	switch code {
	case CarrierSKT, CarrierKT, CarrierLGU:
		return true
	}
	return false
}
