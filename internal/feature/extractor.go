package feature

import (
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Índices do vetor de features, na ordem fixa:
// [length, serviceHashBucket, errorSeverity, digitRatio, wordCount, rareWordScore]
const (
	Length = iota
	ServiceBucket
	ErrorSeverity
	DigitRatio
	WordCount
	RareWordScore

	Size = 6
)

const buckets = 1000

// Vocabulary é o lado de leitura do tracker de frequência de palavras.
type Vocabulary interface {
	RarityScore(message string) float64
}

type severityTier struct {
	Score    float64
	Keywords []string
}

// Ordem importa: do mais grave para o menos grave, primeiro tier que casar vence.
var severityTiers = []severityTier{
	{10, []string{"critical", "fatal", "panic", "crashed", "abort", "aborted", "killed", "segfault", "core dump"}},
	{8, []string{"error", "exception", "failed", "failure", "rejected", "denied", "invalid", "forbidden", "unauthorized"}},
	{6, []string{"timeout", "unavailable", "refused", "connection", "unreachable", "deadlock", "conflict", "corrupt"}},
	{4, []string{"warning", "warn", "retry", "retrying", "degraded", "throttle", "throttled"}},
	{2, []string{"deprecated", "slow", "delay", "latency"}},
}

// Severity retorna o tier 0/2/4/6/8/10 do primeiro keyword presente na mensagem.
func Severity(message string) float64 {
	lower := strings.ToLower(message)
	for _, t := range severityTiers {
		for _, k := range t.Keywords {
			if strings.Contains(lower, k) {
				return t.Score
			}
		}
	}
	return 0
}

// Bucket mapeia o nome do serviço para um inteiro estável em [0,1000).
func Bucket(service string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(service))
	return float64(h.Sum32() % buckets)
}

// Extract produz o vetor de 6 features de um log. Puro: lê o vocabulário mas
// não o altera; determinístico dado o estado atual do vocabulário.
func Extract(message, service string, vocab Vocabulary) []float64 {
	length := utf8.RuneCountInString(message)

	digits := 0
	for _, r := range message {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	den := length
	if den < 1 {
		den = 1
	}

	return []float64{
		float64(length),
		Bucket(service),
		Severity(message),
		float64(digits) / float64(den),
		float64(len(strings.Fields(message))),
		vocab.RarityScore(message),
	}
}
