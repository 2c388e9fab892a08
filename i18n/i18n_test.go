package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("FR-fr") != "fr" {
		t.Fatalf("expected fr for FR-fr")
	}
	if DetectLanguage("de-DE,fr;q=0.8") != "fr" {
		t.Fatalf("expected fr as first supported language")
	}
	if DetectLanguage("") != "en" {
		t.Fatalf("expected default en")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("fr", "required") != "Requis" {
		t.Fatalf("expected Requis")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to en translation if exists
	if T("es", "required") != "Required" {
		t.Fatalf("expected en fallback for es lang")
	}
}

func TestTranslateAll(t *testing.T) {
	got := TranslateAll("fr", map[string]string{"name": "required", "items[0].quantity": "must_be_positive"})
	if got["name"] != "Requis" || got["items[0].quantity"] != "Doit être supérieur à zéro" {
		t.Fatalf("unexpected translations: %v", got)
	}
}

func TestLangContext(t *testing.T) {
	if LangFrom(context.Background()) != DefaultLang {
		t.Fatalf("expected default language")
	}
	if LangFrom(WithLang(context.Background(), "fr")) != "fr" {
		t.Fatalf("expected fr from context")
	}
}
