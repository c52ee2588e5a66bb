// Package telemetry publishes firmware update session lifecycle events to
// a fleet-monitoring SNS topic, the direct repurposing of kryptco-kr's
// phone-alert push path (PushAlertToSNSEndpoint/pushToSNS) into a
// dashboard alert path: instead of "tell the paired phone a pairing
// request arrived", this publishes "tell the fleet dashboard a session
// started, completed, failed, or was cancelled".
package telemetry

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	uuid "github.com/satori/go.uuid"
)

// EventKind names a session lifecycle transition worth telling the
// fleet dashboard about.
type EventKind string

const (
	EventUpdateStarted   EventKind = "update_started"
	EventUpdateCompleted EventKind = "update_completed"
	EventUpdateFailed    EventKind = "update_failed"
	EventUpdateCancelled EventKind = "update_cancelled"
)

// Event is the payload published to the SNS topic for one session
// transition.
type Event struct {
	PeerEID    uint8     `json:"peer_eid"`
	Kind       EventKind `json:"kind"`
	State      string    `json:"state"`
	TrackingID uuid.UUID `json:"tracking_id"`
	Detail     string    `json:"detail,omitempty"`
}

var awsEnvVarsToUnset = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SESSION_TOKEN",
	"AWS_DEFAULT_REGION",
	"AWS_DEFAULT_PROFILE",
}

var unsetAWSEnvVarsOnce sync.Once

func unsetAWSEnvVars() {
	for _, env := range awsEnvVarsToUnset {
		os.Unsetenv(env)
	}
}

// Publisher publishes session Events to a single SNS topic ARN. A zero
// Publisher with an empty TopicARN is a valid no-op sink, so callers that
// don't configure fleet monitoring can still construct a Dispatcher
// without a conditional.
type Publisher struct {
	TopicARN string
	Region   string

	mu  sync.Mutex
	svc *sns.SNS
}

// NewPublisher returns a Publisher targeting topicARN in region.
func NewPublisher(topicARN, region string) *Publisher {
	return &Publisher{TopicARN: topicARN, Region: region}
}

func (p *Publisher) service() (*sns.SNS, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.svc != nil {
		return p.svc, nil
	}
	unsetAWSEnvVarsOnce.Do(unsetAWSEnvVars)

	var conf client.ConfigProvider
	sess, err := session.NewSession(aws.NewConfig().WithRegion(p.Region))
	if err != nil {
		return nil, err
	}
	conf = sess
	p.svc = sns.New(conf)
	return p.svc, nil
}

// WithStaticCredentials overrides the default credential chain, mirroring
// kryptco-kr's getAWSSession using hardcoded restricted credentials for a
// single-purpose publish-only identity.
func (p *Publisher) WithStaticCredentials(accessKeyID, secretAccessKey string) *Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, err := session.NewSession(aws.NewConfig().
		WithRegion(p.Region).
		WithCredentials(credentials.NewStaticCredentials(accessKeyID, secretAccessKey, "")))
	if err == nil {
		p.svc = sns.New(sess)
	}
	return p
}

// Publish sends ev to the topic. A Publisher with an empty TopicARN is a
// no-op, so disabling fleet monitoring requires no caller-side branching.
func (p *Publisher) Publish(ev Event) error {
	if p.TopicARN == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	svc, err := p.service()
	if err != nil {
		return err
	}
	input := &sns.PublishInput{
		Message:   aws.String(string(body)),
		TargetArn: aws.String(p.TopicARN),
	}
	_, err = svc.Publish(input)
	if err != nil && strings.Contains(err.Error(), "EndpointDisabled") {
		// Topic subscriptions come and go with dashboard restarts; one
		// disabled endpoint shouldn't fail the whole publish.
		return nil
	}
	return err
}
