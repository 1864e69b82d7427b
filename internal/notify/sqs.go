package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSDispatcher struct {
	dispatch
	client   sqsAPI
	queueURL string
}

var _ Dispatcher = (*SQSDispatcher)(nil)

func NewSQSDispatcher(client sqsAPI, queueURL string) *SQSDispatcher {
	d := &SQSDispatcher{client: client, queueURL: queueURL}
	d.dispatch = dispatch{p: d}
	return d
}

func (d *SQSDispatcher) publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("publish: marshal: %w", err)
	}

	_, err = d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(msg.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("publish: send %s: %w", msg.Kind, err)
	}
	return nil
}
