package aiven

// Tags attached to a service via the Aiven API.
type Tags struct {
	Tenant      string `json:"tenant"`
	Environment string `json:"environment"`
	Team        string `json:"team"`
}

type topicListResponse struct {
	Topics []topicInfo `json:"topics"`
}

type topicInfo struct {
	TopicName string `json:"topic_name"`
}

type topicResponse struct {
	Topic topicDetail `json:"topic"`
}

type topicDetail struct {
	TopicName  string         `json:"topic_name"`
	Partitions []partitionOut `json:"partitions"`
}

// Partition sizes are bytes. remote_size is only present on topics with
// tiered storage enabled.
type partitionOut struct {
	Size       uint64 `json:"size"`
	RemoteSize uint64 `json:"remote_size"`
}
