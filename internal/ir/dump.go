package ir

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump writes a one-line-per-block human-readable trace of s's body to w,
// following the teacher's internal/vm/disasm.go shape: opcode name,
// inputs, and — when the analyzer has annotated the block — its recorded
// entry/exit TypeState. Used by cmd/blockc -dump and golden-file tests
// (spec.md §6's Diagnostics, operationalized per SPEC_FULL.md §4 S1).
func Dump(w io.Writer, s *Script) {
	fmt.Fprintf(w, "script %s (isProcedure=%v yields=%v warp=%v)\n", s.TopBlockID, s.IsProcedure, s.Yields, s.IsWarp)
	dumpStacks(w, s.Body, 1)
}

func dumpStacks(w io.Writer, stacks []*Stack, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, blk := range stacks {
		fmt.Fprintf(w, "%s%s%s\n", indent, blk.Opcode, inputSummary(blk.Inputs))
		if entry := blk.EntryState(); entry != nil {
			if str, ok := entry.(fmt.Stringer); ok {
				fmt.Fprintf(w, "%s  entry: %s\n", indent, str.String())
			}
		}
		for _, name := range sortedStackKeys(blk.Stacks) {
			fmt.Fprintf(w, "%s  %s:\n", indent, name)
			dumpStacks(w, blk.Stacks[name], depth+2)
		}
		if exit := blk.ExitState(); exit != nil {
			if str, ok := exit.(fmt.Stringer); ok {
				fmt.Fprintf(w, "%s  exit: %s\n", indent, str.String())
			}
		}
	}
}

func inputSummary(inputs map[string]*Input) string {
	if len(inputs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, dumpInput(inputs[k])))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func dumpInput(n *Input) string {
	if n == nil {
		return "<nil>"
	}
	if n.Opcode == CONSTANT {
		return fmt.Sprintf("%v", n.Literal)
	}
	return string(n.Opcode) + inputSummary(n.Inputs)
}

func sortedStackKeys(m map[string][]*Stack) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
