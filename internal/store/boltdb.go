package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/ml"
)

var (
	bArtifacts = []byte("artifacts") // blobs do modelo: detector, scaler, vocabulary
	bAnoms     = []byte("anomalies") // predições anômalas recentes (key=RFC3339Nano)
)

var (
	kDetector   = []byte("detector")
	kScaler     = []byte("scaler")
	kVocabulary = []byte("vocabulary")
)

type Store struct{ db *bolt.DB }

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(bArtifacts); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(bAnoms); e != nil {
			return e
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// -------- Artefatos do modelo --------

// Outcome torna explícito o resultado da tentativa de load: carregado,
// ausente, ou corrompido (o motivo vem no error que acompanha).
type Outcome int

const (
	OutcomeLoaded Outcome = iota
	OutcomeMissing
	OutcomeCorrupt
)

// Artifacts são os três blobs persistidos juntos no bootstrap. Vocabulary
// é opcional: ausente => nil, e o chamador parte de um vocabulário vazio.
type Artifacts struct {
	Forest     *ml.Forest
	Scaler     *ml.Scaler
	Vocabulary map[string]int
}

// LoadArtifacts lê detector e scaler (obrigatórios, juntos ou nada) e o
// vocabulário (opcional, falha não é fatal). OutcomeCorrupt cobre blob
// presente que não deserializa.
func (s *Store) LoadArtifacts() (*Artifacts, Outcome, error) {
	var a Artifacts
	outcome := OutcomeLoaded
	var reason error
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bArtifacts)
		det := b.Get(kDetector)
		sc := b.Get(kScaler)
		if det == nil || sc == nil {
			outcome = OutcomeMissing
			return nil
		}
		a.Forest = &ml.Forest{}
		if err := json.Unmarshal(det, a.Forest); err != nil {
			outcome = OutcomeCorrupt
			reason = fmt.Errorf("decode detector: %w", err)
			return nil
		}
		a.Scaler = &ml.Scaler{}
		if err := json.Unmarshal(sc, a.Scaler); err != nil {
			outcome = OutcomeCorrupt
			reason = fmt.Errorf("decode scaler: %w", err)
			return nil
		}
		if len(a.Forest.Trees) == 0 || len(a.Scaler.Mean) == 0 {
			outcome = OutcomeCorrupt
			reason = fmt.Errorf("artifacts empty after decode")
			return nil
		}
		if v := b.Get(kVocabulary); v != nil {
			vocab := map[string]int{}
			if err := json.Unmarshal(v, &vocab); err == nil {
				a.Vocabulary = vocab
			}
		}
		return nil
	})
	if err != nil {
		return nil, OutcomeCorrupt, err
	}
	if outcome != OutcomeLoaded {
		return nil, outcome, reason
	}
	return &a, OutcomeLoaded, nil
}

// SaveArtifacts grava os três blobs numa transação só.
func (s *Store) SaveArtifacts(a *Artifacts) error {
	det, err := json.Marshal(a.Forest)
	if err != nil {
		return fmt.Errorf("encode detector: %w", err)
	}
	sc, err := json.Marshal(a.Scaler)
	if err != nil {
		return fmt.Errorf("encode scaler: %w", err)
	}
	voc, err := json.Marshal(a.Vocabulary)
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bArtifacts)
		if e := b.Put(kDetector, det); e != nil {
			return e
		}
		if e := b.Put(kScaler, sc); e != nil {
			return e
		}
		return b.Put(kVocabulary, voc)
	})
}

// -------- Predições anômalas --------

type Prediction struct {
	When      time.Time `json:"when"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	Score     float64   `json:"score"`
	IsAnomaly bool      `json:"isAnomaly"`
}

func (s *Store) PutAnomaly(p Prediction) error {
	j, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bAnoms)
		base := p.When.UTC().Format(time.RFC3339Nano)
		k := []byte(base)
		// sufixo incremental evita colisão no mesmo nanossegundo
		for i := 0; b.Get(k) != nil; i++ {
			k = []byte(fmt.Sprintf("%s:%03d", base, i))
		}
		return b.Put(k, j)
	})
}

// ListAnomalies devolve as mais recentes primeiro.
func (s *Store) ListAnomalies(limit int) ([]Prediction, error) {
	out := []Prediction{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bAnoms).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var p Prediction
			if json.Unmarshal(v, &p) == nil {
				out = append(out, p)
				if limit > 0 && len(out) >= limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

// IterateAnomalies percorre em ordem de tempo; fn devolve false para parar.
func (s *Store) IterateAnomalies(fn func(p Prediction) bool) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bAnoms).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var p Prediction
			if json.Unmarshal(v, &p) != nil {
				continue
			}
			if !fn(p) {
				break
			}
		}
		return nil
	})
}
