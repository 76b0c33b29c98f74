package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"
)

// Hasher hashes new passwords with the configured algorithm and verifies
// hashes of either format, so existing accounts keep working after a switch.
type Hasher struct {
	algo        string
	bcryptCost  int
	argonParams *argon2id.Params
}

func New(algo string) (*Hasher, error) {
	switch algo {
	case "", AlgoBcrypt:
		return &Hasher{algo: AlgoBcrypt, bcryptCost: bcrypt.DefaultCost}, nil
	case AlgoArgon2id:
		return &Hasher{algo: AlgoArgon2id, argonParams: argon2id.DefaultParams}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", algo)
	}
}

// NewBcrypt returns a bcrypt hasher with an explicit cost. Tests use MinCost.
func NewBcrypt(cost int) *Hasher {
	return &Hasher{algo: AlgoBcrypt, bcryptCost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	if h.algo == AlgoArgon2id {
		return argon2id.CreateHash(plain, h.argonParams)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches encoded. A mismatch is not an error.
func (h *Hasher) Verify(plain, encoded string) (bool, error) {
	if strings.HasPrefix(encoded, "$argon2id$") {
		return argon2id.ComparePasswordAndHash(plain, encoded)
	}
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
