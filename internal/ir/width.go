package ir

import "math/big"

// supportedWidths are the bit-vector widths the engine's width inference
// will choose between; spec §3. Explicit -n values are not restricted to
// this set (any positive width is accepted), only inference is.
var supportedWidths = []int{1, 2, 4, 8, 16, 32, 64}

// DefaultWidth is used when inference finds no literal to size from.
const DefaultWidth = 8

var one = big.NewInt(1)

// modulus returns 2^width as a *big.Int.
func modulus(width int) *big.Int {
	return new(big.Int).Lsh(one, uint(width))
}

// Mod reduces v modulo 2^width into [0, 2^width).
func Mod(v *big.Int, width int) *big.Int {
	m := modulus(width)
	r := new(big.Int).Mod(v, m)
	if r.Sign() < 0 {
		r.Add(r, m)
	}
	return r
}

// InferWidth returns the smallest supported width covering every Num
// literal's magnitude in e, or DefaultWidth if e has no literal.
//
// A literal's magnitude is measured by BitLen() of its absolute value: this
// mirrors bitLen-based bucketing (0,1 -> 1; 2 -> 2; 3,4 -> 4; 5..8 -> 8;
// 9..16 -> 16; 17..32 -> 32; 33 and above -> 64), matching the original
// GetSize approximation.
func InferWidth(e Expr) int {
	best := 0
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Num:
			bl := new(big.Int).Abs(n.Value).BitLen()
			w := widthForBitLen(bl)
			if w > best {
				best = w
			}
		case *Var:
		case *BinOp:
			walk(n.Left)
			walk(n.Right)
		case *UnaryOp:
			walk(n.Operand)
		case *NAry:
			for _, c := range n.Children {
				walk(c)
			}
		case *Call:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	walk(e)
	if best == 0 {
		return DefaultWidth
	}
	return best
}

func widthForBitLen(bl int) int {
	switch {
	case bl <= 2:
		if bl <= 1 {
			return 1
		}
		return 2
	case bl <= 4:
		return 4
	case bl <= 8:
		return 8
	case bl <= 16:
		return 16
	case bl <= 32:
		return 32
	case bl <= 64:
		return 64
	default:
		return 64
	}
}
