package vocab

import (
	"strings"
	"sync"
)

// Tracker é o dono único do estado de frequência de palavras usado no score de
// raridade. Contadores só crescem; sem decay e sem limite de tamanho — o
// vocabulário acompanha o processo inteiro e é recarregado entre restarts.
type Tracker struct {
	mu     sync.RWMutex
	counts map[string]int
	total  int
}

func New() *Tracker { return &Tracker{counts: map[string]int{}} }

func words(message string) []string {
	return strings.Fields(strings.ToLower(message))
}

// Observe incrementa o contador de cada palavra da mensagem (lowercase,
// split por whitespace). Deve ser chamado exatamente uma vez por log recebido,
// antes do scoring. Seguro para chamadas concorrentes: nenhum incremento se perde.
func (t *Tracker) Observe(message string) {
	ws := words(message)
	if len(ws) == 0 {
		return
	}
	t.mu.Lock()
	for _, w := range ws {
		t.counts[w]++
	}
	t.total += len(ws)
	t.mu.Unlock()
}

// RarityScore mede em [0,10] quão raras são as palavras da mensagem frente ao
// corpus observado. Vocabulário vazio ou mensagem sem palavras => 0. Palavra
// nunca vista vale 10; senão max(0, 10 - count/avg*100), onde avg é
// total de ocorrências / palavras distintas. O score é a média por palavra.
func (t *Tracker) RarityScore(message string) float64 {
	ws := words(message)
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.counts) == 0 || len(ws) == 0 {
		return 0
	}
	avg := float64(t.total) / float64(len(t.counts))
	sum := 0.0
	for _, w := range ws {
		c, ok := t.counts[w]
		if !ok {
			sum += 10
			continue
		}
		r := 10 - float64(c)/avg*100
		if r < 0 {
			r = 0
		}
		sum += r
	}
	return sum / float64(len(ws))
}

// Distinct retorna o número de palavras distintas observadas.
func (t *Tracker) Distinct() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.counts)
}

// Snapshot copia o mapa palavra→contagem para persistência.
func (t *Tracker) Snapshot() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.counts))
	for w, c := range t.counts {
		out[w] = c
	}
	return out
}

// Restore substitui o estado pelo snapshot carregado do disco.
func (t *Tracker) Restore(counts map[string]int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[string]int, len(counts))
	t.total = 0
	for w, c := range counts {
		if c <= 0 {
			continue
		}
		t.counts[w] = c
		t.total += c
	}
}
