package data_structures

type SymbolType uint

const (
	FUNC        SymbolType = 1
	DATA        SymbolType = 2
	FILE        SymbolType = 3
	THREADLOCAL SymbolType = 4
	SECTION     SymbolType = 5
	UNKNOWN     SymbolType = 6
)

type Symbol struct {
	Name string
	Addr uint64
	Size uint64
	Type SymbolType
}

func NewSymbol(name string, addr, size uint64, symtype SymbolType) *Symbol {
	return &Symbol{Name: name, Addr: addr, Size: size, Type: symtype}
}
