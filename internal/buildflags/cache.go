package buildflags

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	vmcperrors "vmcp/internal/errors"
)

// DefaultPrefix is stripped from cache keys before they are compared with
// catalog flag names.
const DefaultPrefix = "J9VM_"

// CacheProvider reads BOOL entries of a CMake-style cache file:
//
//	// comment
//	# comment
//	J9VM_OPT_METHOD_HANDLE:BOOL=ON
//
// Entries of any other type are ignored.
type CacheProvider struct {
	table
	path string
}

// LoadCache reads the cache file at path.
func LoadCache(path, prefix string) (*CacheProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, vmcperrors.New(vmcperrors.ConfigInvalid, "cannot open build cache "+path, err)
	}
	defer f.Close()

	p, err := ParseCache(f, prefix)
	if err != nil {
		return nil, err
	}
	p.path = path
	return p, nil
}

// ParseCache reads cache entries from r.
func ParseCache(r io.Reader, prefix string) (*CacheProvider, error) {
	values := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		key, value, ok, err := parseCacheLine(scanner.Text())
		if err != nil {
			return nil, vmcperrors.New(vmcperrors.ConfigInvalid,
				fmt.Sprintf("build cache line %d", line), err)
		}
		if !ok {
			continue
		}
		values[strings.TrimPrefix(key, prefix)] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, vmcperrors.New(vmcperrors.ConfigInvalid, "cannot read build cache", err)
	}
	return &CacheProvider{table: newTable(values)}, nil
}

// Path returns the file the provider was loaded from.
func (p *CacheProvider) Path() string {
	return p.path
}

// parseCacheLine returns ok=false for comments, blank lines and non-BOOL
// entries.
func parseCacheLine(text string) (key string, value bool, ok bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "//") || strings.HasPrefix(text, "#") {
		return "", false, false, nil
	}

	eq := strings.IndexByte(text, '=')
	if eq < 0 {
		return "", false, false, fmt.Errorf("missing '=' in %q", text)
	}
	decl, raw := text[:eq], text[eq+1:]

	colon := strings.LastIndexByte(decl, ':')
	if colon < 0 {
		return "", false, false, fmt.Errorf("missing type in %q", text)
	}
	key, typ := strings.TrimSpace(decl[:colon]), strings.TrimSpace(decl[colon+1:])
	if key == "" {
		return "", false, false, fmt.Errorf("empty key in %q", text)
	}
	if !strings.EqualFold(typ, "BOOL") {
		return "", false, false, nil
	}
	return key, truthy(raw), true, nil
}

func truthy(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ON", "TRUE", "YES", "Y", "1":
		return true
	default:
		return false
	}
}
