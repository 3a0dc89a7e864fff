package util

import (
	"sync"
	"time"
)

type Point struct {
	TS    time.Time
	Score float64
}

// Sliding mantém os pontos dos últimos `keep` de tempo. Guardado por mutex:
// o caminho de predição é concorrente.
type Sliding struct {
	mu     sync.Mutex
	points []Point
}

func (s *Sliding) Add(p Point, keep time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
	cut := p.TS.Add(-keep)
	i := 0
	for ; i < len(s.points); i++ {
		if s.points[i].TS.After(cut) {
			break
		}
	}
	if i > 0 {
		s.points = s.points[i:]
	}
}

func (s *Sliding) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}
