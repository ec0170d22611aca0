package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type stubSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (s *stubSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSQSPublisher_Publish(t *testing.T) {
	client := &stubSQS{}
	pub := NewSQSPublisher(client, "https://sqs.local/booking-events")

	env, err := NewEnvelope("booking:APPT-1", "QX7K2P", BookingCancelledV1{BookingID: "APPT-1"})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if err := pub.Publish(context.Background(), env); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(client.inputs))
	}
	in := client.inputs[0]
	if aws.ToString(in.QueueUrl) != "https://sqs.local/booking-events" {
		t.Fatalf("unexpected queue url: %s", aws.ToString(in.QueueUrl))
	}
	if got := aws.ToString(in.MessageAttributes["event_type"].StringValue); got != "scheduling.booking.cancelled.v1" {
		t.Fatalf("unexpected event_type attribute: %s", got)
	}
	var decoded Envelope
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.EventID != env.EventID {
		t.Fatalf("event id mismatch: %s vs %s", decoded.EventID, env.EventID)
	}
}

func TestSQSPublisher_PublishError(t *testing.T) {
	boom := errors.New("throttled")
	pub := NewSQSPublisher(&stubSQS{err: boom}, "https://sqs.local/q")
	env, _ := NewEnvelope("booking:APPT-1", "", BookingCancelledV1{BookingID: "APPT-1"})
	if err := pub.Publish(context.Background(), env); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewSQSPublisher_PanicsWithoutQueue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewSQSPublisher(&stubSQS{}, " ")
}

func TestMemoryPublisher(t *testing.T) {
	pub := &MemoryPublisher{}
	env, _ := NewEnvelope("booking:APPT-1", "", BookingCancelledV1{BookingID: "APPT-1"})
	_ = pub.Publish(context.Background(), env)
	if got := pub.Envelopes(); len(got) != 1 || got[0].EventID != env.EventID {
		t.Fatalf("unexpected envelopes: %#v", got)
	}
}
