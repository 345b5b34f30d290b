package presenter

// Palette assigns display attributes to authors in the order they are first seen
type Palette[T any] struct {
	attrs    []T
	assigned map[string]T
}

func NewPalette[T any](attrs ...T) *Palette[T] {
	return &Palette[T]{
		attrs:    attrs,
		assigned: make(map[string]T),
	}
}

// For returns the attribute of author, assigning the next one in the cycle on first sighting
func (p *Palette[T]) For(author string) T {
	if a, ok := p.assigned[author]; ok {
		return a
	}
	var a T
	if len(p.attrs) > 0 {
		a = p.attrs[len(p.assigned)%len(p.attrs)]
	}
	p.assigned[author] = a
	return a
}
