package molecule

import (
	"github.com/haidi-ustc/stk/pkg/errors"
)

// Element describes one entry of the periodic table: atomic number, symbol,
// and standard atomic weight.
type Element struct {
	AtomicNumber int
	Symbol       string
	Mass         float64
}

// elements lists the periodic table through radon.  Order equals atomic
// number, so byNumber lookups are a slice index.
var elements = []Element{
	{1, "H", 1.008}, {2, "He", 4.003}, {3, "Li", 6.941}, {4, "Be", 9.012},
	{5, "B", 10.811}, {6, "C", 12.011}, {7, "N", 14.007}, {8, "O", 15.999},
	{9, "F", 18.998}, {10, "Ne", 20.180}, {11, "Na", 22.990}, {12, "Mg", 24.305},
	{13, "Al", 26.982}, {14, "Si", 28.086}, {15, "P", 30.974}, {16, "S", 32.066},
	{17, "Cl", 35.453}, {18, "Ar", 39.948}, {19, "K", 39.098}, {20, "Ca", 40.078},
	{21, "Sc", 44.956}, {22, "Ti", 47.867}, {23, "V", 50.942}, {24, "Cr", 51.996},
	{25, "Mn", 54.938}, {26, "Fe", 55.845}, {27, "Co", 58.933}, {28, "Ni", 58.693},
	{29, "Cu", 63.546}, {30, "Zn", 65.38}, {31, "Ga", 69.723}, {32, "Ge", 72.631},
	{33, "As", 74.922}, {34, "Se", 78.971}, {35, "Br", 79.904}, {36, "Kr", 84.798},
	{37, "Rb", 84.468}, {38, "Sr", 87.62}, {39, "Y", 88.906}, {40, "Zr", 91.224},
	{41, "Nb", 92.906}, {42, "Mo", 95.95}, {43, "Tc", 98.907}, {44, "Ru", 101.07},
	{45, "Rh", 102.906}, {46, "Pd", 106.42}, {47, "Ag", 107.868}, {48, "Cd", 112.414},
	{49, "In", 114.818}, {50, "Sn", 118.711}, {51, "Sb", 121.760}, {52, "Te", 127.6},
	{53, "I", 126.904}, {54, "Xe", 131.294}, {55, "Cs", 132.905}, {56, "Ba", 137.328},
	{57, "La", 138.905}, {58, "Ce", 140.116}, {59, "Pr", 140.908}, {60, "Nd", 144.243},
	{61, "Pm", 144.913}, {62, "Sm", 150.36}, {63, "Eu", 151.964}, {64, "Gd", 157.25},
	{65, "Tb", 158.925}, {66, "Dy", 162.500}, {67, "Ho", 164.930}, {68, "Er", 167.259},
	{69, "Tm", 168.934}, {70, "Yb", 173.055}, {71, "Lu", 174.967}, {72, "Hf", 178.49},
	{73, "Ta", 180.948}, {74, "W", 183.84}, {75, "Re", 186.207}, {76, "Os", 190.23},
	{77, "Ir", 192.217}, {78, "Pt", 195.085}, {79, "Au", 196.967}, {80, "Hg", 200.592},
	{81, "Tl", 204.383}, {82, "Pb", 207.2}, {83, "Bi", 208.980}, {84, "Po", 208.982},
	{85, "At", 209.987}, {86, "Rn", 222.018},
}

var bySymbol = func() map[string]Element {
	m := make(map[string]Element, len(elements))
	for _, e := range elements {
		m[e.Symbol] = e
	}
	return m
}()

// ElementByNumber returns the element with the given atomic number.
func ElementByNumber(n int) (Element, error) {
	if n < 1 || n > len(elements) {
		return Element{}, errors.Newf(errors.ErrCodeInvalidElement, "no element with atomic number %d", n)
	}
	return elements[n-1], nil
}

// ElementBySymbol returns the element with the given periodic-table symbol.
func ElementBySymbol(symbol string) (Element, error) {
	e, ok := bySymbol[symbol]
	if !ok {
		return Element{}, errors.Newf(errors.ErrCodeInvalidElement, "no element with symbol %q", symbol)
	}
	return e, nil
}
