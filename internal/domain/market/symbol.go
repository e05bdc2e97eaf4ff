package market

import (
	"regexp"
	"strings"

	"github.com/quantstream/marketd/internal/domain"
)

// symbolPattern covers common ticker forms including index symbols (^GSPC),
// class shares (BRK-B) and exchange suffixes (BP.L).
var symbolPattern = regexp.MustCompile(`^\^?[A-Za-z0-9][A-Za-z0-9.\-]{0,14}$`)

// ValidateSymbol checks that the symbol is a plausible ticker.
// Returns domain.ErrValidation (via ValidationError) on failure.
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return &domain.ValidationError{
			Fields: map[string]string{"symbol": "must be a valid ticker symbol"},
		}
	}
	return nil
}

// SanitizeSymbol converts a symbol to a filesystem-safe name: the index caret
// is dropped and remaining separators become underscores (^GSPC -> GSPC,
// BP.L -> BP_L).
func SanitizeSymbol(symbol string) string {
	s := strings.TrimPrefix(symbol, "^")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
