package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func completed() Message {
	return Message{
		Type:           TypeInterviewCompleted,
		SessionID:      "session-123",
		QuestionsAsked: 7,
		CompletedAt:    "2026-03-02T09:31:00Z",
		Version:        MessageVersion,
	}
}

func TestSQSPublisherStandardQueue(t *testing.T) {
	api := &fakeSQS{}
	p := newSQSPublisher(api, "https://sqs.eu-west-1.amazonaws.com/123/interviews")

	if err := p.Publish(context.Background(), completed()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("expected one send, got %d", len(api.inputs))
	}
	in := api.inputs[0]
	if in.MessageGroupId != nil || in.MessageDeduplicationId != nil {
		t.Fatalf("standard queue must not set FIFO fields")
	}
	if got := aws.ToString(in.MessageAttributes["sessionId"].StringValue); got != "session-123" {
		t.Fatalf("sessionId attribute = %q", got)
	}
	if got := aws.ToString(in.MessageAttributes["version"].StringValue); got != "1" {
		t.Fatalf("version attribute = %q", got)
	}
	msg, err := DecodeMessage([]byte(aws.ToString(in.MessageBody)))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.SessionID != "session-123" || msg.QuestionsAsked != 7 {
		t.Fatalf("unexpected body %+v", msg)
	}
}

func TestSQSPublisherFIFOQueueDeduplicatesBySession(t *testing.T) {
	api := &fakeSQS{}
	p := newSQSPublisher(api, "https://sqs.eu-west-1.amazonaws.com/123/interviews.fifo")

	if err := p.Publish(context.Background(), completed()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	in := api.inputs[0]
	if got := aws.ToString(in.MessageGroupId); got != "session-123" {
		t.Fatalf("group id = %q", got)
	}
	if got := aws.ToString(in.MessageDeduplicationId); got != "interview.completed:session-123" {
		t.Fatalf("dedup id = %q", got)
	}
}

func TestSQSPublisherWrapsSendError(t *testing.T) {
	cause := errors.New("throttled")
	p := newSQSPublisher(&fakeSQS{err: cause}, "https://sqs.example/q")
	err := p.Publish(context.Background(), completed())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestSQSPublisherRejectsIncompleteMessage(t *testing.T) {
	api := &fakeSQS{}
	p := newSQSPublisher(api, "https://sqs.example/q")
	if err := p.Publish(context.Background(), Message{Type: TypeInterviewCompleted}); err == nil {
		t.Fatalf("expected encode error")
	}
	if len(api.inputs) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestNewSQSPublisherRequiresURL(t *testing.T) {
	if _, err := NewSQSPublisher(context.Background(), " ", "eu-west-1"); err == nil {
		t.Fatalf("expected error for empty queue url")
	}
}
