package notifiers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSNotify(t *testing.T) {
	client := &fakeSNSClient{}
	notifier := &snsNotifier{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:eu-west-1:1:ads",
		client:   client,
		log:      noopLogger{},
	}

	evt := NewEvent(testListing("vinted", "101"))
	if err := notifier.Notify(context.Background(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("published %d messages, want 1", len(client.inputs))
	}
	input := client.inputs[0]
	if *input.TopicArn != notifier.topicARN {
		t.Fatalf("topic arn = %q", *input.TopicArn)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(*input.Message), &decoded); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if decoded.Listing.Key() != "vinted/101" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}

	attr, ok := input.MessageAttributes["platform"]
	if !ok || *attr.StringValue != "vinted" {
		t.Fatalf("platform attribute missing or wrong: %+v", input.MessageAttributes)
	}
}

func TestSNSNotifyError(t *testing.T) {
	notifier := &snsNotifier{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:eu-west-1:1:ads",
		client:   &fakeSNSClient{err: errors.New("access denied")},
		log:      noopLogger{},
	}

	if err := notifier.Notify(context.Background(), NewEvent(domain.Listing{Platform: "vinted", ID: "1"})); err == nil {
		t.Fatal("expected publish error to surface")
	}
}
