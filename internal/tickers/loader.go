package tickers

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// symbolColumns lists header names probed for the ticker column, in
// preference order. Index exports disagree on the header; some ship the
// symbol under "Name".
var symbolColumns = []string{"Symbol", "Name", "Ticker"}

// Loader reads ticker universes from CSV files and merges them into one
// deduplicated list.
type Loader struct {
	Paths []string
}

func NewLoader(paths ...string) *Loader {
	return &Loader{Paths: paths}
}

// Load reads every configured file and merges the cleaned symbols. A
// file without a recognizable ticker column logs a warning and is
// skipped; Load fails when no file yields any symbols.
func (l *Loader) Load() ([]string, error) {
	var raw []string
	for _, path := range l.Paths {
		syms, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if len(syms) == 0 {
			log.Warn().Str("file", path).Msg("no ticker column found")
			continue
		}
		log.Info().Str("file", path).Int("symbols", len(syms)).Msg("tickers loaded")
		raw = append(raw, syms...)
	}

	cleaned := Clean(raw)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no ticker symbols found in %v", l.Paths)
	}
	return cleaned, nil
}

func loadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticker file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := -1
	for _, name := range symbolColumns {
		for i, h := range rows[0] {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return nil, nil
	}

	var syms []string
	for _, row := range rows[1:] {
		if col < len(row) {
			syms = append(syms, row[col])
		}
	}
	return syms, nil
}

// Clean uppercases, trims and deduplicates symbols, keeping the first
// occurrence. Symbols that are not alphanumeric once dots and dashes
// are stripped get dropped.
func Clean(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" || !validSymbol(sym) {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

func validSymbol(sym string) bool {
	stripped := strings.NewReplacer(".", "", "-", "").Replace(sym)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
