package interpreter

import (
	"errors"
	"math/big"
)

var (
	errZeroDenominator = errors.New("zero denominator")
	errTooLarge        = errors.New("result too large")
)

// maxPowBits bounds the estimated size of a power's numerator or denominator
const maxPowBits = 1 << 22

// Fraction is an exact rational number. It is kept normalized: the
// denominator is positive and shares no factor with the numerator.
type Fraction struct {
	num *big.Int
	den *big.Int
}

// NewFraction builds num/den in lowest terms
func NewFraction(num, den int64) (*Fraction, error) {
	return newFractionBig(big.NewInt(num), big.NewInt(den))
}

func newFractionBig(num, den *big.Int) (*Fraction, error) {
	if den.Sign() == 0 {
		return nil, errZeroDenominator
	}
	f := &Fraction{num: new(big.Int).Set(num), den: new(big.Int).Set(den)}
	f.normalize()
	return f, nil
}

func fractionFromInt(n int64) *Fraction {
	return &Fraction{num: big.NewInt(n), den: big.NewInt(1)}
}

func (f *Fraction) normalize() {
	if f.den.Sign() < 0 {
		f.num.Neg(f.num)
		f.den.Neg(f.den)
	}
	if f.num.Sign() == 0 {
		f.den.SetInt64(1)
		return
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(f.num), f.den)
	if g.Cmp(big.NewInt(1)) != 0 {
		f.num.Quo(f.num, g)
		f.den.Quo(f.den, g)
	}
}

// Num returns a copy of the numerator
func (f *Fraction) Num() *big.Int { return new(big.Int).Set(f.num) }

// Den returns a copy of the denominator
func (f *Fraction) Den() *big.Int { return new(big.Int).Set(f.den) }

func (f *Fraction) String() string {
	if f.den.IsInt64() && f.den.Int64() == 1 {
		return f.num.String()
	}
	return f.num.String() + "/" + f.den.String()
}

// IsInteger reports whether the denominator is one
func (f *Fraction) IsInteger() bool {
	return f.den.Cmp(big.NewInt(1)) == 0
}

// Trunc returns the integer part when it fits in an int64
func (f *Fraction) Trunc() (int64, bool) {
	q := new(big.Int).Quo(f.num, f.den)
	if !q.IsInt64() {
		return 0, false
	}
	return q.Int64(), true
}

func (f *Fraction) Float64() float64 {
	v, _ := new(big.Rat).SetFrac(f.num, f.den).Float64()
	return v
}

func (f *Fraction) Sign() int { return f.num.Sign() }

func (f *Fraction) Add(g *Fraction) *Fraction {
	num := new(big.Int).Mul(f.num, g.den)
	num.Add(num, new(big.Int).Mul(g.num, f.den))
	r, _ := newFractionBig(num, new(big.Int).Mul(f.den, g.den))
	return r
}

func (f *Fraction) Sub(g *Fraction) *Fraction {
	return f.Add(g.Neg())
}

func (f *Fraction) Mul(g *Fraction) *Fraction {
	r, _ := newFractionBig(new(big.Int).Mul(f.num, g.num), new(big.Int).Mul(f.den, g.den))
	return r
}

func (f *Fraction) Quo(g *Fraction) (*Fraction, error) {
	return newFractionBig(new(big.Int).Mul(f.num, g.den), new(big.Int).Mul(f.den, g.num))
}

// Mod returns f - g*floor(f/g)
func (f *Fraction) Mod(g *Fraction) (*Fraction, error) {
	if g.num.Sign() == 0 {
		return nil, errZeroDenominator
	}
	q, _ := f.Quo(g)
	// Euclidean division floors since the denominator is positive
	floor := new(big.Int).Div(q.num, q.den)
	return f.Sub(g.Mul(&Fraction{num: floor, den: big.NewInt(1)})), nil
}

func (f *Fraction) Neg() *Fraction {
	return &Fraction{num: new(big.Int).Neg(f.num), den: new(big.Int).Set(f.den)}
}

// Pow raises f to an integer power. It fails with errTooLarge when the
// result would exceed maxPowBits.
func (f *Fraction) Pow(exp int64) (*Fraction, error) {
	neg := exp < 0
	abs := uint64(exp)
	if neg {
		abs = uint64(-(exp + 1)) + 1
	}
	if bits := max(f.num.BitLen(), f.den.BitLen()); bits > 1 && abs > maxPowBits/uint64(bits) {
		return nil, errTooLarge
	}
	e := new(big.Int).SetUint64(abs)
	num := new(big.Int).Exp(f.num, e, nil)
	den := new(big.Int).Exp(f.den, e, nil)
	if neg {
		num, den = den, num
	}
	return newFractionBig(num, den)
}

// Cmp compares f and g and returns -1, 0 or +1
func (f *Fraction) Cmp(g *Fraction) int {
	return new(big.Int).Mul(f.num, g.den).Cmp(new(big.Int).Mul(g.num, f.den))
}
