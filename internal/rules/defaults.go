package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
)

//go:embed tables/default.yaml
var defaultTables []byte

var (
	defaultOnce   sync.Once
	defaultLoaded *Tables
	defaultErr    error
)

// Default returns the compiled table set embedded in the binary. The tables
// are parsed on first call and shared by all subsequent callers; the result
// must be treated as read-only.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultLoaded, defaultErr = LoadFromReader(bytes.NewReader(defaultTables))
		if defaultErr != nil {
			defaultErr = fmt.Errorf("rules: embedded default tables: %w", defaultErr)
		}
	})
	return defaultLoaded, defaultErr
}

// MustDefault is like [Default] but panics on error. The embedded tables are
// validated by the package's own tests, so a failure here means a corrupted
// build.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}
