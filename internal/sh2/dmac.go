package sh2

// DMAC models the SH-2's 4-channel on-chip DMA controller. Each channel
// has independent source/destination addresses, transfer count, and
// control register; channel-to-channel priority is fixed (0 highest).
type DMAC struct {
	Channels [4]DMAChannel
	OR       uint32 // DMA operation register: bit0=DME (master enable)
}

// DMAChannel is one SH-2 DMAC channel's register set.
type DMAChannel struct {
	SAR   uint32 // source address
	DAR   uint32 // destination address
	TCR   uint32 // transfer count (0 means 0x1000000, per hardware convention)
	CHCR  uint32 // channel control: bit0=DE, bit1=TE, bits2-3=source/dest modes
}

const (
	chcrDE = 1 << 0 // DMA enable
	chcrTE = 1 << 1 // transfer end (set by hardware, cleared by software)
)

// Memory is the bus view used by DMA transfers.
type Memory interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, v uint8)
}

// count returns the channel's effective transfer count, applying the
// hardware convention that a zero TCR means 0x1000000 (16M) transfers.
func (ch *DMAChannel) count() uint32 {
	if ch.TCR == 0 {
		return 0x1000000
	}
	return ch.TCR
}

// Run executes channel idx's transfer synchronously if DMAC.OR's master
// enable and the channel's DE bit are both set, then raises the
// channel's interrupt via onComplete. Transfers complete as a whole
// rather than stealing bus cycles one at a time.
func (d *DMAC) Run(idx int, mem Memory, onComplete func(channel int)) {
	if d.OR&1 == 0 {
		return
	}
	ch := &d.Channels[idx]
	if ch.CHCR&chcrDE == 0 || ch.CHCR&chcrTE != 0 {
		return
	}
	n := ch.count()
	for i := uint32(0); i < n; i++ {
		mem.Write8(ch.DAR, mem.Read8(ch.SAR))
		ch.SAR++
		ch.DAR++
	}
	ch.TCR = 0
	ch.CHCR |= chcrTE
	if onComplete != nil {
		onComplete(idx)
	}
}
