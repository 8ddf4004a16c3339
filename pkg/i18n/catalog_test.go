package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalogs(t *testing.T, files map[string]string) *Catalog {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestTranslateExactLocale(t *testing.T) {
	c := writeCatalogs(t, map[string]string{
		"en.yaml": "greeting: Hello\n",
		"de.yaml": "greeting: Guten Tag\n",
	})
	got, ok := c.Translate("greeting", "de")
	if !ok || got != "Guten Tag" {
		t.Fatalf("got %q, %v", got, ok)
	}
}

func TestTranslateRegionFallsBackToBase(t *testing.T) {
	c := writeCatalogs(t, map[string]string{
		"en.yaml": "greeting: Hello\n",
		"de.yaml": "greeting: Guten Tag\n",
	})
	got, ok := c.Translate("greeting", "de-AT")
	if !ok || got != "Guten Tag" {
		t.Fatalf("de-AT should match de: got %q, %v", got, ok)
	}
	got, ok = c.Translate("greeting", "de_AT")
	if !ok || got != "Guten Tag" {
		t.Fatalf("underscore form: got %q, %v", got, ok)
	}
}

func TestTranslateUnmatchedLocaleStillResolves(t *testing.T) {
	c := writeCatalogs(t, map[string]string{
		"de.yaml": "greeting: Guten Tag\n",
		"en.yaml": "greeting: Hello\n",
	})
	// The matcher routes locales outside the catalog set through its
	// language-distance data; Swahili lands on English, not on the
	// first catalog tag.
	got, ok := c.Translate("greeting", "sw")
	if !ok || got != "Hello" {
		t.Fatalf("got %q, %v", got, ok)
	}
	// An unparseable locale falls back to the matcher's first tag.
	got, ok = c.Translate("greeting", "!!")
	if !ok || got != "Guten Tag" {
		t.Fatalf("unparseable locale: got %q, %v", got, ok)
	}
}

func TestTranslateMissingKey(t *testing.T) {
	c := writeCatalogs(t, map[string]string{"en.yaml": "greeting: Hello\n"})
	if _, ok := c.Translate("farewell", "en"); ok {
		t.Fatal("missing key must report false")
	}
}

func TestLoadCatalogEmptyDir(t *testing.T) {
	if _, err := LoadCatalog(t.TempDir()); err == nil {
		t.Fatal("want error for empty catalog dir")
	}
}

func TestLoadCatalogBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("greeting: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(dir); err == nil {
		t.Fatal("want error for malformed catalog")
	}
}

func TestFilterAdapter(t *testing.T) {
	c := writeCatalogs(t, map[string]string{
		"en.yaml": "nav.home: Home\n",
		"fr.yaml": "nav.home: Accueil\n",
	})
	fn := Filter(c, "en")

	got, err := fn("nav.home", nil)
	if err != nil || got != "Home" {
		t.Fatalf("default locale: %v, %v", got, err)
	}
	got, err = fn("nav.home", []string{"fr"})
	if err != nil || got != "Accueil" {
		t.Fatalf("locale arg: %v, %v", got, err)
	}
	got, err = fn("nav.missing", nil)
	if err != nil || got != "nav.missing" {
		t.Fatalf("missing key passes through: %v, %v", got, err)
	}
	got, err = fn(nil, nil)
	if err != nil || got != "" {
		t.Fatalf("nil value: %v, %v", got, err)
	}
}
