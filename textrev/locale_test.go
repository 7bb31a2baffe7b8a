package textrev

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLocaleFromEnv(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantName    string
		wantCodeset string
	}{
		{name: "unset", env: nil, wantName: "C.UTF-8", wantCodeset: "UTF-8"},
		{name: "C", env: map[string]string{"LANG": "C"}, wantName: "C", wantCodeset: "UTF-8"},
		{name: "POSIX", env: map[string]string{"LANG": "POSIX"}, wantName: "POSIX", wantCodeset: "UTF-8"},
		{name: "no codeset", env: map[string]string{"LANG": "en_US"}, wantName: "en_US", wantCodeset: "UTF-8"},
		{name: "utf8 spelling", env: map[string]string{"LANG": "en_GB.utf8"}, wantName: "en_GB.utf8", wantCodeset: "UTF-8"},
		{name: "modifier stripped", env: map[string]string{"LANG": "de_DE.UTF-8@euro"}, wantName: "de_DE.UTF-8@euro", wantCodeset: "UTF-8"},
		{
			name:        "LC_ALL wins",
			env:         map[string]string{"LC_ALL": "fr_FR.UTF-8", "LC_CTYPE": "xx.BOGUS", "LANG": "xx.BOGUS"},
			wantName:    "fr_FR.UTF-8",
			wantCodeset: "UTF-8",
		},
		{
			name:        "LC_CTYPE before LANG",
			env:         map[string]string{"LC_CTYPE": "en_US.UTF-8", "LANG": "xx.BOGUS"},
			wantName:    "en_US.UTF-8",
			wantCodeset: "UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LocaleFromEnv(envOf(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, loc.Name)
			assert.Equal(t, tt.wantCodeset, loc.Codeset)
			assert.True(t, loc.IsUTF8())
			assert.NotNil(t, loc.Encoding)
		})
	}
}

func TestLocaleFromEnv_Legacy(t *testing.T) {
	loc, err := LocaleFromEnv(envOf(map[string]string{"LANG": "de_DE.ISO-8859-1"}))
	require.NoError(t, err)

	assert.False(t, loc.IsUTF8())
	assert.Contains(t, loc.Codeset, "8859")
	require.NotNil(t, loc.Encoding)

	got, err := loc.Reverse([]byte{'a', 0xE9, 'b'})
	require.NoError(t, err)
	assert.Equal(t, []byte{'b', 0xE9, 'a'}, got)
}

func TestLocaleFromEnv_Unsupported(t *testing.T) {
	loc, err := LocaleFromEnv(envOf(map[string]string{"LC_CTYPE": "xx_XX.NOT-A-CHARSET"}))

	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "LC_CTYPE", cfgErr.Field)
	assert.Equal(t, "xx_XX.NOT-A-CHARSET", loc.Name)
}

func TestCodesetOf(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"C":                 "",
		"POSIX":             "",
		"en_US":             "",
		"en_US.UTF-8":       "UTF-8",
		"sr_RS.UTF-8@latin": "UTF-8",
		"ja_JP.eucJP":       "eucJP",
	}
	for in, want := range tests {
		assert.Equal(t, want, codesetOf(in), "codesetOf(%q)", in)
	}
}

func TestCurrentLocale_ResolvesOnce(t *testing.T) {
	localeOnce = sync.Once{}
	t.Cleanup(func() { localeOnce = sync.Once{} })

	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "en_GB.UTF-8")

	first := CurrentLocale()
	assert.Equal(t, "en_GB.UTF-8", first.Name)

	t.Setenv("LANG", "de_DE.ISO-8859-1")
	assert.Equal(t, first, Init(), "locale must not change after first resolution")
}

func TestCurrentLocale_FallsBackToUTF8(t *testing.T) {
	localeOnce = sync.Once{}
	t.Cleanup(func() { localeOnce = sync.Once{} })

	t.Setenv("LC_ALL", "xx_XX.NOT-A-CHARSET")

	loc := CurrentLocale()
	assert.True(t, loc.IsUTF8())
	assert.Equal(t, "xx_XX.NOT-A-CHARSET", loc.Name)
}

func TestReverse_ConcurrentFirstUse(t *testing.T) {
	localeOnce = sync.Once{}
	t.Cleanup(func() { localeOnce = sync.Once{} })
	t.Setenv("LC_ALL", "C.UTF-8")

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := Reverse([]byte("a\u0301bc"))
			if err == nil {
				results[i] = string(out)
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "cba\u0301", r)
	}
}
