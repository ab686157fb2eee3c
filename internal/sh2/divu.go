package sh2

// DIVU is the on-chip division unit register block: 32÷32 and 64÷32
// signed division with overflow detection, mapped at the SH-2's
// on-chip peripheral address range.
type DIVU struct {
	DVSR  uint32
	DVDNT uint32 // writing this triggers a 32÷32 divide
	DVDNTH uint32
	DVDNTL uint32 // writing this triggers a 64÷32 divide, with DVDNTH as the high dividend half
	DVCR  uint32 // bit0 = overflow flag, bit1 = overflow interrupt enable
}

const (
	dvcrOverflow      = 1 << 0
	dvcrOverflowIntEn = 1 << 1
)

// WriteDVDNT performs a signed 32÷32 division. DVDNTH/DVDNTL are
// updated with the remainder/quotient, mirroring real hardware's dual
// view of the result.
func (d *DIVU) WriteDVDNT(dividend uint32) {
	d.DVDNT = dividend
	divisor := int32(d.DVSR)
	if divisor == 0 {
		d.overflow(dividend)
		return
	}
	q, r := divide32(int32(dividend), divisor)
	d.DVDNTL = uint32(q)
	d.DVDNTH = uint32(r)
	d.DVDNT = uint32(q)
}

// WriteDVDNTL performs a signed 64÷32 division using DVDNTH as the
// dividend's high 32 bits. On divisor-overflow or quotient-overflow,
// the quotient saturates to the largest representable value of the
// correct sign and DVCR's overflow bit is set.
func (d *DIVU) WriteDVDNTL(low uint32) {
	dividend := int64(d.DVDNTH)<<32 | int64(low)
	divisor := int64(int32(d.DVSR))
	if divisor == 0 {
		d.overflow(d.DVDNTH)
		return
	}
	q := dividend / divisor
	r := dividend % divisor
	if q > int64(int32(0x7FFFFFFF)) || q < -0x80000000 {
		if q > 0 {
			q = 0x7FFFFFFF
		} else {
			q = -0x80000000
		}
		d.DVCR |= dvcrOverflow
	}
	d.DVDNTL = uint32(q)
	d.DVDNTH = uint32(r)
}

func (d *DIVU) overflow(dividend uint32) {
	d.DVCR |= dvcrOverflow
	if int32(dividend) >= 0 {
		d.DVDNTL = 0x7FFFFFFF
	} else {
		d.DVDNTL = 0x80000000
	}
	d.DVDNT = d.DVDNTL
}

func divide32(dividend, divisor int32) (q, r int32) {
	q64 := int64(dividend) / int64(divisor)
	r64 := int64(dividend) % int64(divisor)
	if q64 > 0x7FFFFFFF || q64 < -0x80000000 {
		if q64 > 0 {
			return 0x7FFFFFFF, int32(r64)
		}
		return -0x80000000, int32(r64)
	}
	return int32(q64), int32(r64)
}

// divStep implements the DIV1 instruction: one bit of the software
// bit-serial non-restoring division algorithm, using SR's Q and M flags
// as the running sign state (classic SH-family semantics, independent
// of the DIVU peripheral above).
func (c *CPU) divStep(n, m int) {
	oldQ := c.SR&srQ != 0
	q := c.R[n]&0x80000000 != 0
	c.SR &^= srQ
	if q {
		c.SR |= srQ
	}
	c.R[n] = (c.R[n] << 1) | c.t()

	mBit := c.SR&srM != 0
	var carry bool
	if oldQ == mBit {
		old := c.R[n]
		c.R[n] -= c.R[m]
		carry = c.R[n] > old
	} else {
		old := c.R[n]
		c.R[n] += c.R[m]
		carry = c.R[n] < old
	}
	newQ := carry != q
	if mBit {
		newQ = !newQ
	}
	c.SR &^= srQ
	if newQ {
		c.SR |= srQ
	}
	c.setT(newQ == mBit)
}
