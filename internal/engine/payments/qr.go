package payments

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

// GenerateReferenceQR renders a payment reference code as a PNG QR code for
// point-of-sale display.
func GenerateReferenceQR(referenceCode string, size int) ([]byte, error) {
	if size == 0 {
		size = 512
	}
	if size < 128 || size > 2048 {
		return nil, errors.New("invalid size: must be between 128 and 2048")
	}

	qr, err := qrcode.New(referenceCode, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	return qr.PNG(size)
}
