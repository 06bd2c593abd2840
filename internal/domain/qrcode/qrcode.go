package qrcode

// Renderer turns a finished payload string into a scannable image.
type Renderer interface {
	Render(payload string) ([]byte, error)
}
