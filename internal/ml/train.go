package ml

import "math/rand"

// Treino de bootstrap: quando não há modelo persistido, geramos tráfego
// sintético com as mesmas distribuições do serviço real e ajustamos
// scaler + floresta sobre ele. Seed fixa => artefatos reprodutíveis.
const (
	DefaultSeed   = 42
	Contamination = 0.2 // fração esperada de anomalias no mix sintético (80/400)

	normalSamples  = 320
	anomalySamples = 80

	numTrees   = 100
	sampleSize = 256
)

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func uniformInt(rng *rand.Rand, lo, hi int) float64 {
	return float64(lo + rng.Intn(hi-lo))
}

func weighted(rng *rand.Rand, vals []float64, weights []float64) float64 {
	r := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return vals[i]
		}
	}
	return vals[len(vals)-1]
}

// logs normais: curtos, severidade baixa, poucos dígitos, palavras comuns
func normalSample(rng *rand.Rand) []float64 {
	return []float64{
		uniformInt(rng, 20, 200),
		uniformInt(rng, 0, 1000),
		weighted(rng, []float64{0, 2, 4}, []float64{0.7, 0.2, 0.1}),
		uniform(rng, 0, 0.15),
		uniformInt(rng, 3, 15),
		uniform(rng, 0, 3.0),
	}
}

// logs anômalos: mais longos, severidade alta, palavras raras
func anomalousSample(rng *rand.Rand) []float64 {
	return []float64{
		uniformInt(rng, 50, 500),
		uniformInt(rng, 0, 1000),
		weighted(rng, []float64{6, 8, 10}, []float64{0.3, 0.5, 0.2}),
		uniform(rng, 0, 0.3),
		uniformInt(rng, 5, 30),
		uniform(rng, 5.0, 10.0),
	}
}

// Train gera o dataset sintético, ajusta o scaler sobre os 400 exemplos,
// treina a floresta sobre os dados padronizados e calibra o limiar para a
// fração de contaminação. Determinístico para uma mesma seed.
func Train(seed int64) (*Model, error) {
	rng := rand.New(rand.NewSource(seed))

	data := make([][]float64, 0, normalSamples+anomalySamples)
	for i := 0; i < normalSamples; i++ {
		data = append(data, normalSample(rng))
	}
	for i := 0; i < anomalySamples; i++ {
		data = append(data, anomalousSample(rng))
	}

	scaler := &Scaler{}
	if err := scaler.Fit(data); err != nil {
		return nil, err
	}
	scaled := make([][]float64, len(data))
	for i, row := range data {
		s, err := scaler.Transform(row)
		if err != nil {
			return nil, err
		}
		scaled[i] = s
	}

	forest, err := fitForest(scaled, numTrees, sampleSize, rng)
	if err != nil {
		return nil, err
	}
	forest.calibrate(scaled, Contamination)

	return &Model{Scaler: scaler, Forest: forest}, nil
}
