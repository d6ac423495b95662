// Package points holds the point-award collaborator boundary.
package points

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogAwarder records awards in the log only. The real ledger of team points
// lives outside this engine.
type LogAwarder struct {
	logger *logrus.Entry
}

func NewLogAwarder(logger *logrus.Entry) *LogAwarder {
	return &LogAwarder{logger: logger}
}

func (a *LogAwarder) Award(_ context.Context, recipientID int64, points int) error {
	a.logger.WithFields(logrus.Fields{"recipient_id": recipientID, "points": points}).
		Info("Points awarded for completed challenge")
	return nil
}
