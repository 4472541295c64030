package cardano

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const AdaDecimals = 6

var maxLovelace = new(big.Int).SetUint64(^uint64(0))

// ParseAda converts a decimal ada amount such as "12.5" to lovelace. At most
// six decimal places are accepted and the result must be positive.
func ParseAda(amount string) (lovelace uint64, err error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		err = errors.Wrap(ErrInvalidAmount, "ada amount cannot be empty")
		return
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) || strings.HasSuffix(amount, ".") {
		err = errors.Wrapf(ErrInvalidAmount, "'%s' is not a decimal ada amount", amount)
		return
	}
	if len(frac) > AdaDecimals {
		err = errors.Wrapf(ErrInvalidAmount, "'%s' has more than %d decimal places", amount, AdaDecimals)
		return
	}

	frac += strings.Repeat("0", AdaDecimals-len(frac))

	result, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		err = errors.Wrapf(ErrInvalidAmount, "'%s' is not a decimal ada amount", amount)
		return
	}
	if result.Sign() <= 0 {
		err = errors.Wrapf(ErrInvalidAmount, "'%s' must be greater than zero", amount)
		return
	}
	if result.Cmp(maxLovelace) > 0 {
		err = errors.Wrapf(ErrInvalidAmount, "'%s' exceeds the maximum lovelace amount", amount)
		return
	}

	return result.Uint64(), nil
}

// FormatAda renders lovelace as an ada decimal with grouped whole digits and
// no trailing zeros.
func FormatAda(lovelace uint64) string {
	whole := lovelace / LovelacePerAda
	frac := lovelace % LovelacePerAda

	p := message.NewPrinter(language.English)
	if frac == 0 {
		return p.Sprintf("%d", whole)
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
	return p.Sprintf("%d.%s", whole, fracStr)
}

// FormatLovelace renders lovelace with thousands separators for logs.
func FormatLovelace(lovelace uint64) string {
	return message.NewPrinter(language.English).Sprintf("%d lovelace", lovelace)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
