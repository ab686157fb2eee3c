package sh2

// execute decodes and runs one 16-bit instruction. Unrecognized opcodes
// behave as NOP rather than trapping as an illegal instruction.
func (c *CPU) execute(op uint16) {
	n := int((op >> 8) & 0xF)
	m := int((op >> 4) & 0xF)
	switch op >> 12 {
	case 0x0:
		c.exec0(op, n, m)
	case 0x1: // MOV.L Rm,@(disp4,Rn)
		d := uint32(op&0xF) * 4
		c.Bus.Write32(c.R[n]+d, c.R[m])
	case 0x2:
		c.exec2(op, n, m)
	case 0x3:
		c.exec3(op, n, m)
	case 0x4:
		c.exec4(op, n)
	case 0x5: // MOV.L @(disp4,Rm),Rn
		d := uint32(op&0xF) * 4
		c.R[n] = c.Bus.Read32(c.R[m] + d)
	case 0x6:
		c.exec6(op, n, m)
	case 0x7: // ADD #imm,Rn
		c.R[n] += uint32(int32(int8(op & 0xFF)))
	case 0x8:
		c.exec8(op, n)
	case 0x9: // MOV.W @(disp,PC),Rn
		d := uint32(op&0xFF) * 2
		addr := (c.PC) + d
		c.R[n] = uint32(int32(int16(c.Bus.Read16(addr))))
	case 0xA: // BRA
		c.branchDelayed(c.branchTarget(op))
	case 0xB: // BSR
		target := c.branchTarget(op)
		c.PR = c.PC + 2
		c.branchDelayed(target)
	case 0xC:
		c.execC(op, n)
	case 0xD: // MOV.L @(disp,PC),Rn
		d := uint32(op&0xFF) * 4
		addr := (c.PC &^ 3) + d
		c.R[n] = c.Bus.Read32(addr)
	case 0xE: // MOV #imm,Rn
		c.R[n] = uint32(int32(int8(op & 0xFF)))
	case 0xF:
		// Floating point is absent from the SH-2 integer core modeled
		// here; treat as NOP.
	}
}

func (c *CPU) branchTarget(op uint16) uint32 {
	d := int32(int8(op & 0xFF))
	return uint32(int32(c.PC) + d*2)
}

// branchDelayed executes the delay-slot instruction at the (already
// advanced) PC, then jumps to target.
func (c *CPU) branchDelayed(target uint32) {
	slot := c.Bus.Read16(c.PC)
	c.PC += 2
	c.execute(slot)
	c.PC = target
}

func (c *CPU) exec0(op uint16, n, m int) {
	switch op & 0xFF {
	case 0x02: // STC SR,Rn
		c.R[n] = c.SR
	case 0x12:
		c.R[n] = c.GBR
	case 0x22:
		c.R[n] = c.VBR
	case 0x09: // NOP
	case 0x0B: // RTS
		target := c.PR
		c.branchDelayed(target)
	case 0x19: // DIV0U
		c.SR &^= uint32(srQ | srM | srT)
	case 0x1B: // SLEEP
		c.Halted = true
	case 0x29: // MOVT Rn
		c.R[n] = c.t()
	case 0x0A: // STS MACH,Rn
		c.R[n] = c.MACH
	case 0x1A: // STS MACL,Rn
		c.R[n] = c.MACL
	case 0x2A: // STS PR,Rn
		c.R[n] = c.PR
	default:
		switch op & 0xF00F {
		case 0x000C: // MOV.B @(R0,Rm),Rn
			c.R[n] = uint32(int32(int8(c.Bus.Read8(c.R[m] + c.R[0]))))
		case 0x000D:
			c.R[n] = uint32(int32(int16(c.Bus.Read16(c.R[m] + c.R[0]))))
		case 0x000E:
			c.R[n] = c.Bus.Read32(c.R[m] + c.R[0])
		case 0x0004: // MOV.B Rm,@(R0,Rn)
			c.Bus.Write8(c.R[n]+c.R[0], uint8(c.R[m]))
		case 0x0005:
			c.Bus.Write16(c.R[n]+c.R[0], uint16(c.R[m]))
		case 0x0006:
			c.Bus.Write32(c.R[n]+c.R[0], c.R[m])
		case 0x0007: // MUL.L
			c.MACL = c.R[n] * c.R[m]
		}
	}
}

func (c *CPU) exec2(op uint16, n, m int) {
	switch op & 0xF {
	case 0x0: // MOV.B Rm,@Rn
		c.Bus.Write8(c.R[n], uint8(c.R[m]))
	case 0x1:
		c.Bus.Write16(c.R[n], uint16(c.R[m]))
	case 0x2:
		c.Bus.Write32(c.R[n], c.R[m])
	case 0x4: // MOV.B Rm,@-Rn
		c.R[n]--
		c.Bus.Write8(c.R[n], uint8(c.R[m]))
	case 0x5:
		c.R[n] -= 2
		c.Bus.Write16(c.R[n], uint16(c.R[m]))
	case 0x6:
		c.R[n] -= 4
		c.Bus.Write32(c.R[n], c.R[m])
	case 0x8: // TST Rm,Rn
		c.setT(c.R[n]&c.R[m] == 0)
	case 0x9: // AND Rm,Rn
		c.R[n] &= c.R[m]
	case 0xA: // XOR
		c.R[n] ^= c.R[m]
	case 0xB: // OR
		c.R[n] |= c.R[m]
	case 0xC: // CMP/STR
		diff := c.R[n] ^ c.R[m]
		c.setT(byte(diff) == 0 || byte(diff>>8) == 0 || byte(diff>>16) == 0 || byte(diff>>24) == 0)
	case 0xD: // XTRCT
		c.R[n] = (c.R[n] >> 16) | (c.R[m] << 16)
	case 0xE: // MULU
		c.MACL = (c.R[n] & 0xFFFF) * (c.R[m] & 0xFFFF)
	case 0xF: // MULS
		c.MACL = uint32(int32(int16(c.R[n])) * int32(int16(c.R[m])))
	}
}

func (c *CPU) exec3(op uint16, n, m int) {
	switch op & 0xF {
	case 0x0: // CMP/EQ
		c.setT(c.R[n] == c.R[m])
	case 0x2: // CMP/HS
		c.setT(c.R[n] >= c.R[m])
	case 0x3: // CMP/GE
		c.setT(int32(c.R[n]) >= int32(c.R[m]))
	case 0x4: // DIV1 (single DIVU step; 32 iterations done by caller)
		c.divStep(n, m)
	case 0x5: // DMULU.L
		prod := uint64(c.R[n]) * uint64(c.R[m])
		c.MACH = uint32(prod >> 32)
		c.MACL = uint32(prod)
	case 0x6: // CMP/HI
		c.setT(c.R[n] > c.R[m])
	case 0x7: // CMP/GT
		c.setT(int32(c.R[n]) > int32(c.R[m]))
	case 0x8: // SUB
		c.R[n] -= c.R[m]
	case 0xA: // SUBC
		r := uint64(c.R[n]) - uint64(c.R[m]) - uint64(c.t())
		c.setT(r>>32 != 0)
		c.R[n] = uint32(r)
	case 0xC: // ADD
		c.R[n] += c.R[m]
	case 0xD: // DMULS.L
		prod := int64(int32(c.R[n])) * int64(int32(c.R[m]))
		c.MACH = uint32(prod >> 32)
		c.MACL = uint32(prod)
	case 0xE: // ADDC
		r := uint64(c.R[n]) + uint64(c.R[m]) + uint64(c.t())
		c.setT(r>>32 != 0)
		c.R[n] = uint32(r)
	}
}

func (c *CPU) exec4(op uint16, n int) {
	switch op & 0xFF {
	case 0x00: // SHLL
		c.setT(c.R[n]&0x80000000 != 0)
		c.R[n] <<= 1
	case 0x01: // SHLR
		c.setT(c.R[n]&1 != 0)
		c.R[n] >>= 1
	case 0x04: // ROTL
		carry := c.R[n] >> 31
		c.R[n] = (c.R[n] << 1) | carry
		c.setT(carry != 0)
	case 0x05: // ROTR
		carry := c.R[n] & 1
		c.R[n] = (c.R[n] >> 1) | (carry << 31)
		c.setT(carry != 0)
	case 0x10: // DT
		c.R[n]--
		c.setT(c.R[n] == 0)
	case 0x11: // CMP/PZ
		c.setT(int32(c.R[n]) >= 0)
	case 0x15: // CMP/PL
		c.setT(int32(c.R[n]) > 0)
	case 0x0B: // JSR
		target := c.R[n]
		c.PR = c.PC + 2
		c.branchDelayed(target)
	case 0x2B: // JMP
		c.branchDelayed(c.R[n])
	case 0x0E: // LDC Rn,SR
		c.SR = c.R[n]
	case 0x1E:
		c.GBR = c.R[n]
	case 0x2E:
		c.VBR = c.R[n]
	case 0x0A: // LDS Rn,MACH
		c.MACH = c.R[n]
	case 0x1A:
		c.MACL = c.R[n]
	case 0x2A:
		c.PR = c.R[n]
	}
}

func (c *CPU) exec6(op uint16, n, m int) {
	switch op & 0xF {
	case 0x0:
		c.R[n] = uint32(int32(int8(c.Bus.Read8(c.R[m]))))
	case 0x1:
		c.R[n] = uint32(int32(int16(c.Bus.Read16(c.R[m]))))
	case 0x2:
		c.R[n] = c.Bus.Read32(c.R[m])
	case 0x3: // MOV Rm,Rn
		c.R[n] = c.R[m]
	case 0x7: // NOT
		c.R[n] = ^c.R[m]
	case 0x9: // SWAP.W
		c.R[n] = (c.R[m] << 16) | (c.R[m] >> 16)
	case 0xC: // EXTB
		c.R[n] = uint32(int32(int8(c.R[m])))
	case 0xD: // EXTW
		c.R[n] = uint32(int32(int16(c.R[m])))
	case 0xE: // EXTU.B
		c.R[n] = c.R[m] & 0xFF
	case 0xF: // EXTU.W
		c.R[n] = c.R[m] & 0xFFFF
	}
}

func (c *CPU) exec8(op uint16, n int) {
	switch (op >> 8) & 0xF {
	case 0x8: // CMP/EQ #imm,R0
		c.setT(c.R[0] == uint32(int32(int8(op&0xFF))))
	case 0x9: // BT
		if c.SR&srT != 0 {
			c.PC = c.branchTarget(op)
		}
	case 0xB: // BF
		if c.SR&srT == 0 {
			c.PC = c.branchTarget(op)
		}
	case 0xD: // BT/S
		if c.SR&srT != 0 {
			c.branchDelayed(c.branchTarget(op))
		}
	case 0xF: // BF/S
		if c.SR&srT == 0 {
			c.branchDelayed(c.branchTarget(op))
		}
	}
}

func (c *CPU) execC(op uint16, n int) {
	switch (op >> 8) & 0xF {
	case 0x0: // MOV.B R0,@(disp,GBR)
		c.Bus.Write8(c.GBR+uint32(op&0xFF), uint8(c.R[0]))
	case 0x1:
		c.Bus.Write16(c.GBR+uint32(op&0xFF)*2, uint16(c.R[0]))
	case 0x2:
		c.Bus.Write32(c.GBR+uint32(op&0xFF)*4, c.R[0])
	case 0x4:
		c.R[0] = uint32(int32(int8(c.Bus.Read8(c.GBR + uint32(op&0xFF)))))
	case 0x5:
		c.R[0] = uint32(int32(int16(c.Bus.Read16(c.GBR + uint32(op&0xFF)*2))))
	case 0x6:
		c.R[0] = c.Bus.Read32(c.GBR + uint32(op&0xFF)*4)
	case 0x7: // MOVA @(disp,PC),R0
		c.R[0] = (c.PC &^ 3) + uint32(op&0xFF)*4
	case 0x8: // TST #imm,R0
		c.setT(c.R[0]&uint32(op&0xFF) == 0)
	case 0x9: // AND #imm,R0
		c.R[0] &= uint32(op & 0xFF)
	case 0xA: // XOR #imm,R0
		c.R[0] ^= uint32(op & 0xFF)
	case 0xB: // OR #imm,R0
		c.R[0] |= uint32(op & 0xFF)
	case 0xD: // TRAPA #imm
		c.pushException(uint8(op & 0xFF))
	}
}
