package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLocale = "en"
	catalogFile   = "messages.yaml"
)

//go:embed locales/*/messages.yaml
var builtinFS embed.FS

type Translations map[string]string

var (
	locales = make(map[string]Translations)
	mu      sync.RWMutex
)

func init() {
	if err := loadFS(builtinFS, "locales"); err != nil {
		panic(fmt.Sprintf("i18n: built-in catalogue: %v", err))
	}
}

// LoadTranslations overlays <localePath>/<locale>/messages.yaml on the
// built-in catalogues. Keys missing from a file keep their built-in value.
// Status labels are stored under "status.<key>" and message templates
// under "message.<key>".
func LoadTranslations(localePath string) error {
	return loadFS(os.DirFS(localePath), ".")
}

func loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		filePath := path.Join(root, entry.Name(), catalogFile)

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			continue
		}
		if err := LoadLocale(entry.Name(), data); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
	}

	return nil
}

// LoadLocale merges a single catalogue from raw YAML into the locale.
func LoadLocale(locale string, data []byte) error {
	trans, err := parseCatalog(data)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	existing, ok := locales[locale]
	if !ok {
		locales[locale] = trans
		return nil
	}
	for k, v := range trans {
		existing[k] = v
	}
	return nil
}

func parseCatalog(data []byte) (Translations, error) {
	var catalog struct {
		Statuses Translations `yaml:"STATUSES"`
		Messages Translations `yaml:"MESSAGES"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}

	trans := make(Translations, len(catalog.Statuses)+len(catalog.Messages))
	for k, v := range catalog.Statuses {
		trans["status."+k] = v
	}
	for k, v := range catalog.Messages {
		trans["message."+k] = v
	}
	return trans, nil
}

func Translate(locale, key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if trans, ok := locales[locale]; ok {
		if val, ok := trans[key]; ok {
			return val
		}
	}

	if locale != DefaultLocale {
		if trans, ok := locales[DefaultLocale]; ok {
			if val, ok := trans[key]; ok {
				return val
			}
		}
	}

	return key
}

// Status returns the human-readable label of a request status. Unknown
// statuses fall back to the raw value.
func Status(locale, status string) string {
	key := "status." + status
	if val := Translate(locale, key); val != key {
		return val
	}
	return status
}

// Render fills {name} placeholders of a message template.
func Render(locale, key string, vars map[string]string) string {
	tmpl := Translate(locale, "message."+key)
	if len(vars) == 0 {
		return tmpl
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
