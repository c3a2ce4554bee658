package pathcalc

// Entry is one element of a rule's path-calc sequence: either a Calculator
// or the terminal Stop sentinel. Rules build their sequence
// from Calc() and Stop values.
type Entry struct {
	calc   Calculator
	isStop bool
}

// Stop is the terminal sentinel: when it is the last entry of a rule's
// sequence, none of that rule's outputs are re-enqueued for another pass,
// even if they land in working_dir. A Stop anywhere else in the sequence is
// dropped and has no effect.
var Stop = Entry{isStop: true}

// Calc wraps a Calculator as a path-calc sequence entry.
func Calc(c Calculator) Entry {
	return Entry{calc: c}
}

// IsStop reports whether this entry is the Stop sentinel.
func (e Entry) IsStop() bool {
	return e.isStop
}

// Calculator returns the wrapped Calculator and true, or (nil, false) if
// this entry is the Stop sentinel.
func (e Entry) Calculator() (Calculator, bool) {
	if e.isStop {
		return nil, false
	}
	return e.calc, true
}
