package cardano

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

type HexString string

func (h HexString) String() string {
	return string(h)
}

func (h HexString) Bytes() []byte {
	b, _ := hex.DecodeString(string(h))
	return b
}

func (h HexString) Valid() bool {
	_, err := hex.DecodeString(string(h))
	return err == nil
}

func (h HexString) Lower() HexString {
	return HexString(strings.ToLower(string(h)))
}

// DecodeLength returns the decoded byte length, or an error if the string is
// not hex.
func (h HexString) DecodeLength() (n int, err error) {
	if len(h)%2 != 0 {
		err = errors.Errorf("odd length hex string '%s'", h)
		return
	}
	if !h.Valid() {
		err = errors.Errorf("invalid hex string '%s'", h)
		return
	}
	return len(h) / 2, nil
}

type HexBytes []byte

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func (h HexBytes) HexString() HexString {
	return HexString(h.String())
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, h.String())), nil
}

func (h *HexBytes) UnmarshalJSON(data []byte) (err error) {
	s := strings.Trim(string(data), `"`)
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrapf(err, "invalid hex bytes '%s'", s)
	}
	*h = decoded
	return
}

func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Msgf("error checking directory: %v", err)
		}
		return false
	}
	return info.IsDir()
}

var StandardCborDecoder, _ = cbor.DecOptions{
	UTF8: cbor.UTF8DecodeInvalid,
}.DecMode()

// LedgerCborEncoder produces the deterministic encoding transaction hashes
// are computed over.
var LedgerCborEncoder, _ = cbor.CoreDetEncOptions().EncMode()
