package ecs

// Each2 iterates, in ascending entity-index order, over entities that carry
// both component A and B. It walks whichever store is smaller and probes
// the other, matching the teacher's smallest-store-first scan strategy.
func Each2[A, B any](sa *ComponentStore[A], sb *ComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		sa.Each(func(id EntityID, a *A) {
			if b, ok := sb.Get(id); ok {
				fn(id, a, b)
			}
		})
		return
	}
	sb.Each(func(id EntityID, b *B) {
		if a, ok := sa.Get(id); ok {
			fn(id, a, b)
		}
	})
}

// Each3 iterates over entities carrying components A, B, and C.
func Each3[A, B, C any](sa *ComponentStore[A], sb *ComponentStore[B], sc *ComponentStore[C], fn func(EntityID, *A, *B, *C)) {
	smallest := sa.Len()
	which := 0
	if sb.Len() < smallest {
		smallest = sb.Len()
		which = 1
	}
	if sc.Len() < smallest {
		which = 2
	}

	switch which {
	case 0:
		sa.Each(func(id EntityID, a *A) {
			if b, ok := sb.Get(id); ok {
				if c, ok := sc.Get(id); ok {
					fn(id, a, b, c)
				}
			}
		})
	case 1:
		sb.Each(func(id EntityID, b *B) {
			if a, ok := sa.Get(id); ok {
				if c, ok := sc.Get(id); ok {
					fn(id, a, b, c)
				}
			}
		})
	case 2:
		sc.Each(func(id EntityID, c *C) {
			if a, ok := sa.Get(id); ok {
				if b, ok := sb.Get(id); ok {
					fn(id, a, b, c)
				}
			}
		})
	}
}
