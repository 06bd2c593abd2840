package qrgenerator

import (
	qr "github.com/skip2/go-qrcode"
)

type Generator struct {
	size int
}

func NewGenerator(size int) *Generator {
	return &Generator{size: size}
}

// Render encodes the payload verbatim as a PNG. Medium error correction
// matches what banking apps print on merchant stands.
func (g *Generator) Render(payload string) ([]byte, error) {
	return qr.Encode(payload, qr.Medium, g.size)
}
