// Command scudspasm assembles SCU DSP programs: a 256-word VLIW mnemonic
// dialect with labels, equ constants, and numeric literals, output as a
// big-endian binary suitable for Machine's SCU DSP program-load path.
//
// Assembly is two-pass: pass 1 collects labels and program size, pass 2
// encodes each instruction now that every label resolves to an address.
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamek-retro/saturncore/internal/scudsp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "scudspasm:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "scudspasm <source.s>",
		Short: "assemble an SCU DSP program into a raw word-per-instruction binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			asm := newAssembler()
			words, err := asm.assemble(string(src))
			if err != nil {
				return err
			}
			for _, w := range asm.warnings {
				fmt.Fprintln(os.Stderr, "warning:", w)
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], ".s") + ".bin"
			}
			buf := make([]byte, len(words)*4)
			for i, w := range words {
				binary.BigEndian.PutUint32(buf[i*4:], w)
			}
			return os.WriteFile(out, buf, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: input with .bin extension)")
	return cmd
}

// mnemonic is one decoded instruction line, resolved against labels in
// pass 2 once every label's address is known.
type mnemonic struct {
	addr uint8
	op   string
	args []string
	line int
}

// assembler holds label/equ symbol tables and diagnostics across both
// passes, mirroring IE64Assembler's field layout at a much smaller scale.
type assembler struct {
	labels   map[string]uint8
	equates  map[string]int64
	warnings []string
}

func newAssembler() *assembler {
	return &assembler{labels: make(map[string]uint8), equates: make(map[string]int64)}
}

func (a *assembler) warn(format string, args ...interface{}) {
	a.warnings = append(a.warnings, fmt.Sprintf(format, args...))
}

// assemble runs pass 1 (label collection) then pass 2 (encoding),
// returning one uint32 per program-RAM slot, NOP-padded to the highest
// address used.
func (a *assembler) assemble(source string) ([]uint32, error) {
	lines := strings.Split(source, "\n")

	pc := uint8(0)
	var stmts []mnemonic
	for i, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if name, val, ok := parseEqu(line); ok {
			v, err := a.eval(val)
			if err != nil {
				return nil, fmt.Errorf("line %d: equ %s: %w", i+1, name, err)
			}
			a.equates[name] = v
			continue
		}

		if strings.HasSuffix(strings.Fields(line)[0], ":") {
			label := strings.TrimSuffix(strings.Fields(line)[0], ":")
			a.labels[label] = pc
			rest := strings.TrimSpace(line[len(label)+1:])
			if rest == "" {
				continue
			}
			line = rest
		}

		fields := strings.Fields(line)
		op := strings.ToUpper(fields[0])
		args := splitArgs(strings.TrimSpace(line[len(fields[0]):]))
		stmts = append(stmts, mnemonic{addr: pc, op: op, args: args, line: i + 1})
		pc++
	}

	words := make([]uint32, pc)
	for _, s := range stmts {
		w, err := a.encode(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		words[s.addr] = w
	}
	return words, nil
}

// encode lowers one decoded mnemonic into a 32-bit instruction word using
// the scudsp package's own Build* helpers, so the assembler's encoding
// can never drift from the interpreter's decoding.
func (a *assembler) encode(s mnemonic) (uint32, error) {
	switch s.op {
	case "NOP":
		return scudsp.BuildOperation(scudsp.AluNOP, scudsp.MoveNone), nil
	case "AND", "OR", "XOR", "ADD", "SUB", "AD2", "SR", "RR", "SL", "RL", "RL8":
		dest := scudsp.MoveNone
		if len(s.args) > 0 {
			switch strings.ToUpper(s.args[0]) {
			case "AC":
				dest = scudsp.MoveAluToAC
			case "P":
				dest = scudsp.MoveAluToP
			}
		}
		return scudsp.BuildOperation(aluOpFor(s.op), uint32(dest)), nil
	case "MVI":
		if len(s.args) != 2 {
			return 0, fmt.Errorf("MVI requires <dest>, <imm>")
		}
		dest, err := mviDestFor(s.args[0])
		if err != nil {
			return 0, err
		}
		imm, err := a.eval(s.args[1])
		if err != nil {
			return 0, err
		}
		return scudsp.BuildMVI(dest, int32(imm)), nil
	case "JMP":
		if len(s.args) != 2 {
			return 0, fmt.Errorf("JMP requires <cond>, <label>")
		}
		cond, err := jmpCondFor(s.args[0])
		if err != nil {
			return 0, err
		}
		target, err := a.resolveLabel(s.args[1])
		if err != nil {
			return 0, err
		}
		return scudsp.BuildJMP(cond, target), nil
	case "LPS":
		return scudsp.BuildLPS(), nil
	case "BTM":
		return scudsp.BuildBTM(), nil
	case "END":
		return scudsp.BuildEnd(false), nil
	case "ENDI":
		return scudsp.BuildEnd(true), nil
	case "DMA":
		return a.encodeDMA(s.args)
	default:
		return 0, fmt.Errorf("unknown mnemonic %q", s.op)
	}
}

// encodeDMA parses "DMA <dir>, <bank>[, #count][, H]" where dir is D0
// (external-to-internal) or WR (internal-to-external); a missing or zero
// count takes the count from the bank. It uses this package's own
// self-documented (non-bit-exact) DMA encoding.
func (a *assembler) encodeDMA(args []string) (uint32, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("DMA requires <dir>, <bank>[,#count|,H]")
	}
	dirTok := strings.ToUpper(args[0])
	var dir uint32
	switch dirTok {
	case "D0": // external RAM -> DSP data bank
		dir = 0
	case "WR": // DSP data bank -> external RAM
		dir = 1
	default:
		return 0, fmt.Errorf("unknown DMA direction %q (want D0 or WR)", dirTok)
	}
	bank, err := dataBankFor(args[1])
	if err != nil {
		return 0, err
	}
	hold := false
	countFromBank := false
	var count int64
	for _, extra := range args[2:] {
		extra = strings.TrimSpace(extra)
		switch {
		case strings.EqualFold(extra, "H"):
			hold = true
		case strings.HasPrefix(extra, "#"):
			v, err := a.eval(strings.TrimPrefix(extra, "#"))
			if err != nil {
				return 0, err
			}
			count = v
		default:
			return 0, fmt.Errorf("unexpected DMA argument %q", extra)
		}
	}
	if count == 0 {
		countFromBank = true
	}
	return scudsp.BuildDMA(dir, hold, bank, countFromBank, uint32(count)), nil
}

func aluOpFor(op string) uint32 {
	switch op {
	case "AND":
		return scudsp.AluAND
	case "OR":
		return scudsp.AluOR
	case "XOR":
		return scudsp.AluXOR
	case "ADD":
		return scudsp.AluADD
	case "SUB":
		return scudsp.AluSUB
	case "AD2":
		return scudsp.AluAD2
	case "SR":
		return scudsp.AluSR
	case "RR":
		return scudsp.AluRR
	case "SL":
		return scudsp.AluSL
	case "RL":
		return scudsp.AluRL
	case "RL8":
		return scudsp.AluRL8
	default:
		return scudsp.AluNOP
	}
}

func mviDestFor(tok string) (uint32, error) {
	switch strings.ToUpper(tok) {
	case "AC":
		return scudsp.MviToAC, nil
	case "P":
		return scudsp.MviToP, nil
	case "RY":
		return scudsp.MviToRY, nil
	default:
		return 0, fmt.Errorf("unknown MVI destination %q", tok)
	}
}

func jmpCondFor(tok string) (uint32, error) {
	switch strings.ToUpper(tok) {
	case "ALWAYS", "":
		return scudsp.CondAlways, nil
	case "S":
		return scudsp.CondSign, nil
	case "NS":
		return scudsp.CondNotSign, nil
	case "Z":
		return scudsp.CondZero, nil
	case "NZ":
		return scudsp.CondNotZero, nil
	case "C":
		return scudsp.CondCarry, nil
	case "NC":
		return scudsp.CondNotCarry, nil
	case "V":
		return scudsp.CondOverflow, nil
	case "NV":
		return scudsp.CondNotOverflow, nil
	case "T0":
		return scudsp.CondT0, nil
	case "NT0":
		return scudsp.CondNT0, nil
	default:
		return 0, fmt.Errorf("unknown JMP condition %q", tok)
	}
}

func dataBankFor(tok string) (uint32, error) {
	tok = strings.ToUpper(strings.TrimPrefix(tok, "MC"))
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 || n > 3 {
		return 0, fmt.Errorf("data bank must be MC0-MC3, got %q", tok)
	}
	return uint32(n), nil
}

func (a *assembler) resolveLabel(name string) (uint8, error) {
	addr, ok := a.labels[name]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", name)
	}
	return addr, nil
}

// eval resolves a decimal, $hex, or 0x-hex literal, or a previously
// defined equ symbol. The SCU DSP dialect has no label arithmetic in
// expression position (unlike IE64's full expression grammar), since
// every numeric operand here is either an immediate or a loop count.
func (a *assembler) eval(tok string) (int64, error) {
	tok = strings.TrimSpace(tok)
	if v, ok := a.equates[tok]; ok {
		return v, nil
	}
	switch {
	case strings.HasPrefix(tok, "$"):
		v, err := strconv.ParseInt(tok[1:], 16, 64)
		return v, err
	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		v, err := strconv.ParseInt(tok[2:], 16, 64)
		return v, err
	default:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid expression %q", tok)
		}
		return v, nil
	}
}

func parseEqu(line string) (name, value string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) >= 3 && strings.EqualFold(fields[1], "equ") {
		return fields[0], strings.TrimSpace(line[strings.Index(line, fields[2]):]), true
	}
	return "", "", false
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func splitArgs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
