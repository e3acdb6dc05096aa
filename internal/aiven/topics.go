package aiven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/nais/kafka-cost/internal/cost"
)

// The per-topic endpoint is rate-sensitive; the API starts rejecting
// somewhere between 5 and 10 concurrent requests.
const topicFetchConcurrency = 5

var errNotFound = errors.New("not found")

// Topics lists a kafka instance's topics with their partition sizes. An
// instance that no longer exists yields no topics.
func (c *Client) Topics(ctx context.Context, projectName, serviceName string) ([]cost.Topic, error) {
	list := topicListResponse{}
	err := c.get(ctx, &list, "/v1/project/"+projectName+"/service/"+serviceName+"/topic")
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	topics := make([]cost.Topic, len(list.Topics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(topicFetchConcurrency)
	for i, info := range list.Topics {
		g.Go(func() error {
			topic, err := c.topicDetail(gctx, projectName, serviceName, info.TopicName)
			if err != nil {
				return err
			}
			topics[i] = topic
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *Client) topicDetail(ctx context.Context, projectName, serviceName, topicName string) (cost.Topic, error) {
	resp := topicResponse{}
	err := c.get(ctx, &resp, "/v1/project/"+projectName+"/service/"+serviceName+"/topic/"+topicName)
	if errors.Is(err, errNotFound) {
		// Deleted between the list and detail calls.
		return cost.Topic{Name: topicName}, nil
	}
	if err != nil {
		return cost.Topic{}, err
	}
	if resp.Topic.TopicName != topicName {
		return cost.Topic{}, fmt.Errorf("topic detail for %q returned topic %q", topicName, resp.Topic.TopicName)
	}

	partitions := make([]cost.Partition, 0, len(resp.Topic.Partitions))
	for _, p := range resp.Topic.Partitions {
		partitions = append(partitions, cost.Partition{
			Size:       p.Size,
			RemoteSize: p.RemoteSize,
		})
	}
	return cost.Topic{Name: topicName, Partitions: partitions}, nil
}

func (c *Client) get(ctx context.Context, v any, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "aivenv1 "+c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
