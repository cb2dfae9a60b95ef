package workflow

// Sequence is an ordered list of conversation states. Index 0 is the idle
// sentinel; moving past either end yields it.
type Sequence[S comparable] struct {
	states []S
	index  map[S]int
}

func NewSequence[S comparable](states ...S) Sequence[S] {
	index := make(map[S]int, len(states))
	for i, s := range states {
		index[s] = i
	}
	return Sequence[S]{states: states, index: index}
}

func (q Sequence[S]) Idle() S {
	var zero S
	if len(q.states) == 0 {
		return zero
	}
	return q.states[0]
}

func (q Sequence[S]) Next(s S) S {
	return q.move(s, 1)
}

func (q Sequence[S]) Previous(s S) S {
	return q.move(s, -1)
}

// Skip jumps over the state following s, typically an optional confirmation.
func (q Sequence[S]) Skip(s S) S {
	return q.move(s, 2)
}

func (q Sequence[S]) move(s S, delta int) S {
	i, ok := q.index[s]
	if !ok {
		return q.Idle()
	}
	j := i + delta
	if j < 0 || j >= len(q.states) {
		return q.Idle()
	}
	return q.states[j]
}
