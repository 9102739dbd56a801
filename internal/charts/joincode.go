package charts

import "github.com/skip2/go-qrcode"

const joinCodeSize = 320

// JoinCode encodes link as a square PNG QR code.
func JoinCode(link string) ([]byte, error) {
	return qrcode.Encode(link, qrcode.Medium, joinCodeSize)
}
