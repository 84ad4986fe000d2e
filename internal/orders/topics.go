package orders

const (
	TopicOrderConfirmed = "order.confirmed"
	TopicOrderRejected  = "order.rejected"
)

// Partition key = order doc id, so all events for one order stay ordered.
func PartitionKey(orderDocID string) []byte { return []byte(orderDocID) }
