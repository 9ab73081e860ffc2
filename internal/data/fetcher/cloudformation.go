package fetcher

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"

	"github.com/cfnplot/cfnplot/internal/core/event"
	"github.com/cfnplot/cfnplot/internal/util"
)

// API is the subset of the CloudFormation client the fetcher needs; it keeps
// the fetcher testable against a stub.
type API interface {
	cloudformation.DescribeStackEventsAPIClient
	DescribeStackResources(ctx context.Context, params *cloudformation.DescribeStackResourcesInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackResourcesOutput, error)
}

// Options configures client construction.
type Options struct {
	Region  string
	Profile string
	// Nested enables recursive discovery of nested stack events.
	Nested bool
}

// Fetcher retrieves stack events from CloudFormation, paginated and
// aggregated, oldest first. Retry and backoff stay with the SDK defaults.
type Fetcher struct {
	api    API
	nested bool
}

// New builds a Fetcher from the ambient AWS credential chain.
func New(ctx context.Context, opts Options) (*Fetcher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Fetcher{
		api:    cloudformation.NewFromConfig(awsCfg),
		nested: opts.Nested,
	}, nil
}

// NewWithClient builds a Fetcher around a pre-configured client.
func NewWithClient(api API, nested bool) *Fetcher {
	return &Fetcher{api: api, nested: nested}
}

// StackEvents returns all status-change events for the named stack, and for
// its nested stacks when enabled, oldest first. Each nested stack's events
// are tagged with that stack's own id, not the parent's.
func (f *Fetcher) StackEvents(ctx context.Context, stackName string) ([]event.RawEvent, error) {
	visited := make(map[string]bool)
	return f.collect(ctx, stackName, visited)
}

func (f *Fetcher) collect(ctx context.Context, stackName string, visited map[string]bool) ([]event.RawEvent, error) {
	if visited[stackName] {
		return nil, nil
	}
	visited[stackName] = true

	events, err := f.describeEvents(ctx, stackName)
	if err != nil {
		return nil, err
	}
	util.LogDebugf("Fetched %d events for stack %s", len(events), stackName)

	if f.nested {
		children, err := f.nestedStackIDs(ctx, stackName)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			childEvents, err := f.collect(ctx, child, visited)
			if err != nil {
				return nil, err
			}
			events = append(events, childEvents...)
		}
	}

	return events, nil
}

func (f *Fetcher) describeEvents(ctx context.Context, stackName string) ([]event.RawEvent, error) {
	var events []event.RawEvent

	paginator := cloudformation.NewDescribeStackEventsPaginator(f.api, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(stackName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe stack events for %s: %w", stackName, err)
		}
		for _, se := range page.StackEvents {
			raw := event.RawEvent{
				StackID:      aws.ToString(se.StackId),
				StackName:    aws.ToString(se.StackName),
				LogicalID:    aws.ToString(se.LogicalResourceId),
				PhysicalID:   aws.ToString(se.PhysicalResourceId),
				ResourceType: aws.ToString(se.ResourceType),
				Status:       string(se.ResourceStatus),
				Reason:       aws.ToString(se.ResourceStatusReason),
			}
			if se.Timestamp != nil {
				raw.Timestamp = *se.Timestamp
			}
			events = append(events, raw)
		}
	}

	// The API reports newest first; the timeline wants oldest first.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func (f *Fetcher) nestedStackIDs(ctx context.Context, stackName string) ([]string, error) {
	out, err := f.api.DescribeStackResources(ctx, &cloudformation.DescribeStackResourcesInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("describe stack resources for %s: %w", stackName, err)
	}

	var children []string
	for _, res := range out.StackResources {
		if aws.ToString(res.ResourceType) != event.NestedStackResourceType {
			continue
		}
		// The placeholder's physical id is the nested stack's id.
		if id := aws.ToString(res.PhysicalResourceId); id != "" {
			children = append(children, id)
		}
	}
	return children, nil
}
