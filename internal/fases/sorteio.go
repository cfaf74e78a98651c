package fases

import "math/rand/v2"

// Sorteio fornece o número uniforme usado na roleta de distribuição.
// A interface existe para os testes fixarem o resultado do sorteio.
type Sorteio interface {
	Float64() float64
}

type sorteioPadrao struct{}

func (sorteioPadrao) Float64() float64 { return rand.Float64() }

// NovoSorteio devolve a fonte padrão de aleatoriedade.
func NovoSorteio() Sorteio { return sorteioPadrao{} }
