package scoring

import (
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/logger"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/ml"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/store"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/vocab"
)

// Bootstrap carrega os artefatos persistidos ou treina um modelo novo.
// Load ausente/corrompido => retreina com a seed dada e persiste (falha de
// persistência é logada, não fatal: o modelo em memória serve mesmo assim).
// Depois daqui detector e scaler são imutáveis; só o vocabulário muda, e ele
// não é re-persistido durante a vida do processo (limitação documentada).
func Bootstrap(log *logger.Logger, db *store.Store, seed int64) (*ml.Model, *vocab.Tracker, error) {
	arts, outcome, err := db.LoadArtifacts()
	switch outcome {
	case store.OutcomeLoaded:
		log.Info().Msg("model and scaler loaded from store")
		voc := vocab.New()
		if arts.Vocabulary != nil {
			voc.Restore(arts.Vocabulary)
			log.Info().Int("words", voc.Distinct()).Msg("vocabulary loaded")
		}
		return &ml.Model{Forest: arts.Forest, Scaler: arts.Scaler}, voc, nil
	case store.OutcomeMissing:
		log.Info().Msg("no persisted model, training from synthetic data")
	case store.OutcomeCorrupt:
		log.Warn().Err(err).Msg("persisted model unreadable, retraining")
	}

	model, err := ml.Train(seed)
	if err != nil {
		return nil, nil, err
	}
	voc := vocab.New()
	if err := db.SaveArtifacts(&store.Artifacts{
		Forest: model.Forest, Scaler: model.Scaler, Vocabulary: voc.Snapshot(),
	}); err != nil {
		log.Error().Err(err).Msg("persist trained model")
	} else {
		log.Info().Msg("trained model persisted")
	}
	return model, voc, nil
}
