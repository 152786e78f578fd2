package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const defaultRegion = "us-east-1"

// sendAPI is the slice of the SQS client the publisher needs.
type sendAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher publishes events to one SQS queue. On FIFO queues the session id
// is both the group and the deduplication id, so a session completes at most once
// downstream even if the summary is published twice.
type SQSPublisher struct {
	api      sendAPI
	queueURL string
	fifo     bool
}

// NewSQSPublisher loads the default AWS credential chain for region.
func NewSQSPublisher(ctx context.Context, queueURL, region string) (*SQSPublisher, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("queue url is required")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSQSPublisher(sqs.NewFromConfig(cfg), queueURL), nil
}

func newSQSPublisher(api sendAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		api:      api,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}
}

// Publish sends msg with its type, version and session id as message attributes.
func (p *SQSPublisher) Publish(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type":      stringAttr(msg.Type),
			"sessionId": stringAttr(msg.SessionID),
			"version": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(msg.Version)),
			},
		},
	}
	if p.fifo {
		in.MessageGroupId = aws.String(msg.SessionID)
		in.MessageDeduplicationId = aws.String(msg.Type + ":" + msg.SessionID)
	}

	if _, err := p.api.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqs publish %s for %s: %w", msg.Type, msg.SessionID, err)
	}
	return nil
}

func stringAttr(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}

var _ Publisher = (*SQSPublisher)(nil)
