// Package i18n translates violation and error codes for API responses.
package i18n

import (
	"context"
	"strings"
)

type ctxKey struct{}

// DefaultLang is used when no supported language can be detected.
const DefaultLang = "en"

var messages = map[string]map[string]string{
	"en": {
		"required":             "Required",
		"must_be_positive":     "Must be greater than zero",
		"must_not_be_negative": "Must not be negative",
		"out_of_range":         "Out of range",
		"invalid_email":        "Invalid email address",
		"invalid_currency":     "Invalid currency code",
		"invalid_choice":       "Invalid value",
		"invalid_uuid":         "Invalid identifier",
		"invalid_date":         "Invalid date",
		"before_start":         "Must not be before the start time",
		"before_issue_date":    "Must not be before the issue date",
		"not_editable":         "Only draft invoices can be edited",
		"not_payable":          "Payments cannot be recorded in this status",
		"project_mismatch":     "Does not match the project's client",
		"not_time_based":       "Fixed fee projects are not billed by time",
		"already_taken":        "Already taken",
		"too_short":            "Too short",
	},
	"fr": {
		"required":             "Requis",
		"must_be_positive":     "Doit être supérieur à zéro",
		"must_not_be_negative": "Ne doit pas être négatif",
		"out_of_range":         "Hors limites",
		"invalid_email":        "Adresse e-mail invalide",
		"invalid_currency":     "Code devise invalide",
		"invalid_choice":       "Valeur invalide",
		"invalid_uuid":         "Identifiant invalide",
		"invalid_date":         "Date invalide",
		"before_start":         "Ne doit pas précéder l'heure de début",
		"before_issue_date":    "Ne doit pas précéder la date d'émission",
		"not_editable":         "Seules les factures brouillon sont modifiables",
		"not_payable":          "Aucun paiement possible dans cet état",
		"project_mismatch":     "Ne correspond pas au client du projet",
		"not_time_based":       "Un projet au forfait n'est pas facturé au temps",
		"already_taken":        "Déjà utilisé",
		"too_short":            "Trop court",
	},
}

// T translates code into lang. Unknown languages fall back to DefaultLang,
// unknown codes are returned as is.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if msg, ok := m[code]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLang][code]; ok {
		return msg
	}
	return code
}

// TranslateAll translates every value of a field -> code map.
func TranslateAll(lang string, codes map[string]string) map[string]string {
	out := make(map[string]string, len(codes))
	for field, code := range codes {
		out[field] = T(lang, code)
	}
	return out
}

// DetectLanguage picks the first supported language of an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if Supported(base) {
			return base
		}
	}
	return DefaultLang
}

// Supported reports whether lang has translations.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFrom returns the request language or DefaultLang.
func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}
