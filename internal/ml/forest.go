package ml

import (
	"errors"
	"math"
	"math/rand"
)

// Forest é um isolation forest enxuto: árvores aleatórias até um limite de
// altura, score pelo comprimento médio do caminho. Campos exportados para
// round-trip em JSON sem perda.
type Forest struct {
	Trees      []*treeNode `json:"trees"`
	SampleSize int         `json:"sampleSize"`
	Threshold  float64     `json:"threshold"`
}

type treeNode struct {
	Leaf  bool      `json:"leaf,omitempty"`
	Size  int       `json:"size,omitempty"`
	Dim   int       `json:"dim,omitempty"`
	Split float64   `json:"split,omitempty"`
	Left  *treeNode `json:"left,omitempty"`
	Right *treeNode `json:"right,omitempty"`
}

// fitForest treina numTrees árvores sobre subamostras de data. O rng é do
// chamador para manter o treino reprodutível com seed fixa.
func fitForest(data [][]float64, numTrees, sampleSize int, rng *rand.Rand) (*Forest, error) {
	if len(data) == 0 {
		return nil, errors.New("no data to fit forest")
	}
	if sampleSize > len(data) {
		sampleSize = len(data)
	}
	hlim := int(math.Ceil(math.Log2(float64(sampleSize))))
	f := &Forest{Trees: make([]*treeNode, numTrees), SampleSize: sampleSize}
	for i := 0; i < numTrees; i++ {
		idxs := rng.Perm(len(data))
		sample := make([][]float64, sampleSize)
		for j := 0; j < sampleSize; j++ {
			sample[j] = data[idxs[j]]
		}
		f.Trees[i] = buildTree(sample, 0, hlim, rng)
	}
	return f, nil
}

func buildTree(data [][]float64, h, hlim int, rng *rand.Rand) *treeNode {
	if len(data) <= 1 || h >= hlim {
		return &treeNode{Leaf: true, Size: len(data)}
	}
	dim := rng.Intn(len(data[0]))
	minv, maxv := data[0][dim], data[0][dim]
	for _, row := range data[1:] {
		if row[dim] < minv {
			minv = row[dim]
		}
		if row[dim] > maxv {
			maxv = row[dim]
		}
	}
	if minv == maxv {
		return &treeNode{Leaf: true, Size: len(data)}
	}
	split := minv + rng.Float64()*(maxv-minv)
	left := make([][]float64, 0, len(data))
	right := make([][]float64, 0, len(data))
	for _, row := range data {
		if row[dim] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{Leaf: true, Size: len(data)}
	}
	return &treeNode{
		Dim: dim, Split: split,
		Left:  buildTree(left, h+1, hlim, rng),
		Right: buildTree(right, h+1, hlim, rng),
	}
}

// cFactor: comprimento médio de busca malsucedida numa BST, usado na normalização.
func cFactor(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	return 2*(math.Log(float64(n-1))+0.5772156649) - 2*float64(n-1)/float64(n)
}

func pathLength(node *treeNode, x []float64, h int) float64 {
	if node.Leaf {
		if node.Size <= 1 {
			return float64(h)
		}
		return float64(h) + cFactor(node.Size)
	}
	if x[node.Dim] < node.Split {
		return pathLength(node.Left, x, h+1)
	}
	return pathLength(node.Right, x, h+1)
}

// AnomalyScore retorna um score em [0,1]; maior = mais anômalo.
func (f *Forest) AnomalyScore(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += pathLength(t, x, 0)
	}
	avg := sum / float64(len(f.Trees))
	c := cFactor(f.SampleSize)
	if c <= 0 {
		c = 1
	}
	return math.Pow(2, -avg/c)
}

// calibrate fixa o limiar de decisão no quantil (1-contamination) dos scores
// do conjunto de treino, de modo que ~contamination dos exemplos fiquem acima.
func (f *Forest) calibrate(data [][]float64, contamination float64) {
	scores := make([]float64, len(data))
	for i, row := range data {
		scores[i] = f.AnomalyScore(row)
	}
	// ordenação simples; roda uma vez no bootstrap
	for i := 0; i < len(scores)-1; i++ {
		for j := i + 1; j < len(scores); j++ {
			if scores[j] < scores[i] {
				scores[i], scores[j] = scores[j], scores[i]
			}
		}
	}
	idx := int(math.Ceil(float64(len(scores))*(1-contamination))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	f.Threshold = scores[idx]
}
