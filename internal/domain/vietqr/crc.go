package vietqr

import "fmt"

const (
	crcInit       uint16 = 0xFFFF
	crcPolynomial uint16 = 0x1021
)

// Checksum computes CRC-16/CCITT-FALSE over data and renders it as four
// uppercase hex digits. Scanning terminals reject anything else.
func Checksum(data string) string {
	crc := crcInit
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
