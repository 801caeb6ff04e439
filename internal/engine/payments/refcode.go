package payments

import (
	"errors"
	"math/rand"
	"strings"
)

const (
	refCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	refCodeLength = 8

	// Reference code prefixes by payment type.
	PrefixInitial = "PAY"
	PrefixRenewal = "REN"
)

type ReferenceChecker interface {
	ExistsByReference(code string) (bool, error)
}

// GenerateReferenceCode produces a merchant-facing payment reference like
// "PAY-7FK2Q9ZD". Customers quote it when sending mobile money, so it stays
// short, uppercase and unambiguous to read over the phone.
func GenerateReferenceCode(prefix string, checker ReferenceChecker) (string, error) {
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		code := prefix + "-" + randomRefCode(refCodeLength)

		exists, err := checker.ExistsByReference(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	// Collisions this persistent mean something is wrong with the RNG or the
	// table; give up rather than loop.
	return "", errors.New("failed to generate unique reference code")
}

func randomRefCode(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(refCodeChars[rand.Intn(len(refCodeChars))])
	}
	return b.String()
}
