package wake

// CrcInit seeds the CRC-8 accumulator.
const CrcInit byte = 0xDE

// Crc8 folds one byte into the CRC-8 accumulator and returns the new
// value. The recurrence is the protocol's own bit-serial shift
// register and matches no table-driven CRC-8 variant, so it is
// computed bit by bit.
func Crc8(crc, b byte) byte {
	for i := 0; i < 8; i++ {
		if (b^crc)&1 == 1 {
			crc = ((crc ^ 0x18) >> 1) | 0x80
		} else {
			crc = (crc >> 1) &^ 0x80
		}
		b >>= 1
	}
	return crc
}

// Crc computes the CRC-8 of data seeded with CrcInit. An empty slice
// yields CrcInit itself.
func Crc(data []byte) byte {
	crc := CrcInit
	for _, b := range data {
		crc = Crc8(crc, b)
	}
	return crc
}
