package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"momentum-engine/internal/accountstate"
	"momentum-engine/internal/models"
)

// ReconcileAccountUpdate folds one ACCOUNT_UPDATE event into state: if
// the exchange now reports this symbol flat while the engine still
// thinks it holds an open position, the position is idled immediately
// rather than waiting for a future tick to notice (§8 S6).
func ReconcileAccountUpdate(state *accountstate.AccountState, update models.AccountUpdate, now time.Time, log *logrus.Entry) {
	if update.PositionAmount != 0 {
		return
	}

	pos := state.Position(update.Symbol)
	if pos.Status != models.StatusOpen && pos.Status != models.StatusEntering {
		return
	}

	if _, err := state.Mutate(update.Symbol, func(p models.Position) models.Position {
		if p.Status != models.StatusOpen && p.Status != models.StatusEntering {
			return p
		}
		return p.Idled(now)
	}); err != nil {
		log.WithError(err).WithField("symbol", update.Symbol).Warn("не удалось сбросить позицию после flat с биржи")
		return
	}

	log.WithFields(logrus.Fields{
		"account": state.AccountName(),
		"symbol":  update.Symbol,
	}).Info("позиция сброшена в idle: биржа сообщила flat")
}
