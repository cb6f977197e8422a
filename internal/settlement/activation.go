package settlement

import "strings"

type ActivationType string

const (
	ActivationNew    ActivationType = "new"
	ActivationMNP    ActivationType = "mnp"
	ActivationChange ActivationType = "change"
)

var activationAliases = map[string]ActivationType{
	"new":    ActivationNew,
	"신규":     ActivationNew,
	"mnp":    ActivationMNP,
	"번호이동":   ActivationMNP,
	"change": ActivationChange,
	"기기변경":   ActivationChange,
	"기변":     ActivationChange,
}

// ParseActivationType accepts the canonical codes in any case plus the
// Korean labels used on paper settlement sheets.
func ParseActivationType(raw string) (ActivationType, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", &InvalidFieldError{Field: "activation_type", Reason: "required"}
	}
	if t, ok := activationAliases[key]; ok {
		return t, nil
	}
	return "", &InvalidFieldError{Field: "activation_type", Value: raw, Reason: "must be new, mnp or change"}
}
