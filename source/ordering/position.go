package ordering

import "strconv"

// Position is the rank of a lead inside its stage column. A pending position
// has not been assigned yet and sorts after every fixed one until the column
// is renumbered.
type Position struct {
	value int
	fixed bool
}

func Fixed(n int) Position {
	if n < 0 {
		n = 0
	}
	return Position{value: n, fixed: true}
}

func Pending() Position {
	return Position{}
}

// FromPointer maps a stored position (nil when unset) to a Position.
func FromPointer(p *int) Position {
	if p == nil {
		return Pending()
	}
	return Fixed(*p)
}

func (p Position) IsPending() bool {
	return !p.fixed
}

func (p Position) Value() (int, bool) {
	return p.value, p.fixed
}

// Pointer is the storage form of the position: nil while pending.
func (p Position) Pointer() *int {
	if !p.fixed {
		return nil
	}
	v := p.value
	return &v
}

func (p Position) String() string {
	if !p.fixed {
		return "pending"
	}
	return strconv.Itoa(p.value)
}
