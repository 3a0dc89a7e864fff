package ml

import (
	"errors"
	"math"
)

// Scaler guarda média e desvio padrão por feature, ajustados uma vez no treino.
// Campos exportados para serializar junto com o modelo.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func (s *Scaler) Fit(data [][]float64) error {
	if len(data) == 0 {
		return errors.New("no data to fit scaler")
	}
	n := len(data[0])
	s.Mean = make([]float64, n)
	s.Std = make([]float64, n)

	for _, row := range data {
		for i, v := range row {
			s.Mean[i] += v
		}
	}
	for i := range s.Mean {
		s.Mean[i] /= float64(len(data))
	}

	for _, row := range data {
		for i, v := range row {
			d := v - s.Mean[i]
			s.Std[i] += d * d
		}
	}
	for i := range s.Std {
		s.Std[i] = math.Sqrt(s.Std[i] / float64(len(data)))
		if s.Std[i] == 0 {
			s.Std[i] = 1 // evita divisão por zero
		}
	}
	return nil
}

// Transform padroniza um único vetor de features.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, errors.New("scaler not fitted")
	}
	if len(x) != len(s.Mean) {
		return nil, errors.New("feature vector has wrong size")
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Std[i]
	}
	return out, nil
}
