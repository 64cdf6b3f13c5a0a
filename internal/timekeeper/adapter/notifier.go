package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aelexs/timekeeper/internal/timekeeper/app"
)

// snsPublisher is a narrow, consumer-defined interface for the subset of SNS
// operations required by the notifier. The real *sns.Client satisfies it.
type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Compile-time interface satisfaction checks.
var _ app.Notifier = (*SNSNotifier)(nil)
var _ app.Notifier = (*LogNotifier)(nil)

// SNSNotifier publishes notifications to an SNS topic. The notification kind
// and tag travel as message attributes so subscribers can filter on them.
type SNSNotifier struct {
	client   snsPublisher
	topicARN string
}

// NewSNSNotifier creates an SNSNotifier publishing to topicARN.
func NewSNSNotifier(client snsPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// Notify publishes n to the configured topic.
func (p *SNSNotifier) Notify(ctx context.Context, n app.Notification) error {
	ctx, span := tracer.Start(ctx, "sns.notify.publish")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", "aws_sns"),
		attribute.String("messaging.destination.name", p.topicARN),
		attribute.String("timekeeper.notification.kind", n.Kind),
	)

	attrs := map[string]snstypes.MessageAttributeValue{
		"kind": {DataType: aws.String("String"), StringValue: aws.String(n.Kind)},
	}
	if n.Tag != "" {
		attrs["tag"] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(n.Tag)}
	}

	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(p.topicARN),
		Subject:           aws.String(n.Title),
		Message:           aws.String(n.Body),
		MessageAttributes: attrs,
	})
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("sns notifier: publish %s: %w", n.Kind, err)
	}

	return nil
}

// LogNotifier writes notifications to a structured logger instead of
// delivering them anywhere. Suitable for local development and tests.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier that writes to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at INFO. It never fails.
func (p *LogNotifier) Notify(ctx context.Context, n app.Notification) error {
	p.logger.InfoContext(ctx, "notification",
		slog.String("kind", n.Kind),
		slog.String("title", n.Title),
		slog.String("body", n.Body),
		slog.String("tag", n.Tag),
	)
	return nil
}
