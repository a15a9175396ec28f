package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

// LogPublisher writes notifications to the log instead of delivering
// them. Useful for local development and as a safe default backend.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log.WithField("component", "log-publisher")}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, n domain.ChangeNotification) error {
	p.log.WithFields(logrus.Fields{
		"topic":         topic,
		"notification":  n.ID,
		"definition_id": n.DefinitionID,
		"editor":        n.Editor,
		"recipients":    len(n.Recipients),
	}).Info("change notification")
	return nil
}
