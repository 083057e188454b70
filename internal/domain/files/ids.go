package files

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const idSuffixLen = 9

// NewID arma PREFIX-XXXXXXXXX con 9 caracteres [0-9A-Z] tomados de un UUIDv4.
// No es único por construcción: la PK de la tabla lo garantiza y el Service
// regenera el id ante ErrConflict.
func NewID(prefix string) string {
	u := uuid.New()
	digits := strings.ToUpper(new(big.Int).SetBytes(u[:]).Text(36))
	if len(digits) < idSuffixLen {
		digits = strings.Repeat("0", idSuffixLen-len(digits)) + digits
	}
	return prefix + "-" + digits[len(digits)-idSuffixLen:]
}
