package textrev

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// localeVars are consulted in POSIX precedence order for LC_CTYPE.
var localeVars = []string{"LC_ALL", "LC_CTYPE", "LANG"}

// Locale is the active multi-byte text encoding.
type Locale struct {
	// Name is the locale string as found in the environment, e.g. "en_GB.UTF-8".
	Name string
	// Codeset is the canonical name of the resolved encoding.
	Codeset string
	// Encoding converts between the codeset and UTF-8.
	Encoding encoding.Encoding
}

// UTF8Locale returns a UTF-8 locale carrying the given name.
func UTF8Locale(name string) Locale {
	if name == "" {
		name = "C.UTF-8"
	}
	return Locale{Name: name, Codeset: "UTF-8", Encoding: xunicode.UTF8}
}

// IsUTF8 reports whether the locale uses UTF-8.
func (l Locale) IsUTF8() bool {
	return l.Codeset == "UTF-8"
}

var (
	localeOnce sync.Once
	current    Locale
)

// CurrentLocale returns the process locale, resolving it from the environment
// on first use. Resolution happens exactly once per process and is never
// undone. Unknown codesets fall back to UTF-8.
func CurrentLocale() Locale {
	localeOnce.Do(func() {
		loc, err := LocaleFromEnv(os.Getenv)
		if err != nil {
			slog.Warn("textrev: unsupported locale, using UTF-8", "locale", loc.Name, "error", err)
			loc = UTF8Locale(loc.Name)
		}
		current = loc
		slog.Debug("textrev: locale initialized", "locale", loc.Name, "codeset", loc.Codeset)
	})
	return current
}

// Init resolves the process locale. Embedders that call into this package
// from several goroutines may call it once at startup; it is equivalent to
// CurrentLocale.
func Init() Locale {
	return CurrentLocale()
}

// LocaleFromEnv resolves the locale described by the LC_ALL, LC_CTYPE and
// LANG variables as returned by getenv. Empty, "C" and "POSIX" locales and
// locales without a codeset resolve to UTF-8.
func LocaleFromEnv(getenv func(string) string) (Locale, error) {
	var name, source string
	for _, key := range localeVars {
		if v := getenv(key); v != "" {
			name, source = v, key
			break
		}
	}

	codeset := codesetOf(name)
	if codeset == "" {
		return UTF8Locale(name), nil
	}

	enc, canonical, err := lookupEncoding(codeset)
	if err != nil {
		return Locale{Name: name}, &errors.ConfigError{Field: source, Err: err}
	}
	return Locale{Name: name, Codeset: canonical, Encoding: enc}, nil
}

// codesetOf extracts the codeset from language[_territory][.codeset][@modifier].
func codesetOf(name string) string {
	if name == "" || name == "C" || name == "POSIX" {
		return ""
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func lookupEncoding(codeset string) (encoding.Encoding, string, error) {
	switch strings.ToLower(strings.ReplaceAll(codeset, "-", "")) {
	case "utf8":
		return xunicode.UTF8, "UTF-8", nil
	}

	if enc, err := ianaindex.IANA.Encoding(codeset); err == nil && enc != nil {
		name, err := ianaindex.MIME.Name(enc)
		if err != nil {
			if name, err = ianaindex.IANA.Name(enc); err != nil {
				name = codeset
			}
		}
		return enc, name, nil
	}

	if enc, err := htmlindex.Get(codeset); err == nil {
		name, err := htmlindex.Name(enc)
		if err != nil {
			name = codeset
		}
		return enc, name, nil
	}

	return nil, "", fmt.Errorf("unsupported codeset %q", codeset)
}
