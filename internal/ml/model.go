package ml

// Model reúne o scaler e a floresta treinados. Imutável depois do treino:
// pode ser compartilhado entre requests concorrentes sem sincronização.
type Model struct {
	Scaler *Scaler
	Forest *Forest
}

// Score padroniza o vetor e decide. O score devolvido cresce com a
// normalidade: abaixo de zero o detector classifica como anomalia.
// Determinístico dado o mesmo modelo e o mesmo vetor.
func (m *Model) Score(features []float64) (isAnomaly bool, score float64, err error) {
	scaled, err := m.Scaler.Transform(features)
	if err != nil {
		return false, 0, err
	}
	a := m.Forest.AnomalyScore(scaled)
	score = m.Forest.Threshold - a
	return score < 0, score, nil
}
