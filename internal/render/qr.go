package render

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of join QR images.
const QRSize = 256

// JoinQR encodes the join link as a PNG.
func JoinQR(joinURL string, size int) ([]byte, error) {
	if size <= 0 {
		size = QRSize
	}
	png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode join qr: %w", err)
	}
	return png, nil
}
