package emu

import "github.com/sarchlab/armv7/insts"

// ConditionPassed evaluates a condition code against the flags. CondAL and
// CondNV both pass.
func ConditionPassed(a APSR, cond insts.Cond) bool {
	var result bool
	switch cond >> 1 {
	case 0:
		result = a.Z
	case 1:
		result = a.C
	case 2:
		result = a.N
	case 3:
		result = a.V
	case 4:
		result = a.C && !a.Z
	case 5:
		result = a.N == a.V
	case 6:
		result = a.N == a.V && !a.Z
	default:
		return true
	}

	if cond&1 != 0 {
		return !result
	}
	return result
}
