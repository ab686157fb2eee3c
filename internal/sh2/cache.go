package sh2

// Cache models the SH-2's on-chip cache: 64 lines of 4 ways, each way
// holding a 16-byte entry plus an LRU field. Only the address-
// translation and LRU-replacement semantics are modeled; cache-hit
// timing is handled by the caller's clock-ratio bookkeeping.
type Cache struct {
	Lines [64][4]CacheLine
	CCR   uint8 // cache control register: bit0=CE, bit4=WT, bit7=CF (flush)
}

// CacheLine is one 4-way cache way: a tag, validity, and 16 bytes of
// data, plus a 2-bit LRU recency counter (0 = most recently used).
type CacheLine struct {
	Valid bool
	Tag   uint32
	Data  [16]byte
	LRU   uint8
}

func cacheIndex(addr uint32) int { return int((addr >> 4) & 0x3F) }
func cacheTag(addr uint32) uint32 { return addr >> 10 }

// Lookup returns the way index for addr if present, or -1 on a miss.
func (c *Cache) Lookup(addr uint32) int {
	idx := cacheIndex(addr)
	tag := cacheTag(addr)
	for way := 0; way < 4; way++ {
		line := &c.Lines[idx][way]
		if line.Valid && line.Tag == tag {
			return way
		}
	}
	return -1
}

// Fill loads data into the least-recently-used way of addr's set and
// marks it most recently used, evicting whatever was there.
func (c *Cache) Fill(addr uint32, data [16]byte) int {
	idx := cacheIndex(addr)
	victim := 0
	worst := uint8(0)
	for way := 0; way < 4; way++ {
		if !c.Lines[idx][way].Valid {
			victim = way
			break
		}
		if c.Lines[idx][way].LRU >= worst {
			worst = c.Lines[idx][way].LRU
			victim = way
		}
	}
	c.Lines[idx][victim] = CacheLine{Valid: true, Tag: cacheTag(addr), Data: data}
	c.touch(idx, victim)
	return victim
}

func (c *Cache) touch(idx, way int) {
	for w := 0; w < 4; w++ {
		if w == way {
			c.Lines[idx][w].LRU = 0
		} else if c.Lines[idx][w].Valid {
			c.Lines[idx][w].LRU++
		}
	}
}

// Flush invalidates every line (CCR's CF bit, or a manual-reset purge).
func (c *Cache) Flush() {
	for i := range c.Lines {
		for w := range c.Lines[i] {
			c.Lines[i][w] = CacheLine{}
		}
	}
}

// Enabled reports whether the cache is active (CCR bit 0).
func (c *Cache) Enabled() bool { return c.CCR&1 != 0 }

// WriteThrough reports the cache's write policy (CCR bit 4).
func (c *Cache) WriteThrough() bool { return c.CCR&0x10 != 0 }
