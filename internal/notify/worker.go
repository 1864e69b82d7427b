package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
)

// Worker turns queued notification messages into emails. Failed records are
// reported individually so the queue only redelivers those.
type Worker struct {
	mailer Mailer
	logger *slog.Logger
}

func NewWorker(mailer Mailer, logger *slog.Logger) *Worker {
	return &Worker{mailer: mailer, logger: logger}
}

func (w *Worker) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, record := range event.Records {
		log := w.logger.With("message_id", record.MessageId)

		var msg Message
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
			// redelivery cannot fix a malformed body
			log.Error("dropping malformed notification", "error", err)
			continue
		}

		email, err := Render(msg)
		if err != nil {
			log.Error("dropping unrenderable notification", "kind", msg.Kind, "error", err)
			continue
		}

		if err := w.mailer.Send(ctx, email); err != nil {
			log.Warn("notification send failed", "kind", msg.Kind, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
			continue
		}

		log.Info("notification sent", "kind", msg.Kind)
	}

	return resp, nil
}
