package kafka

// Topics для Kafka
const (
	// TopicOrderEvents принимает все события заказов и платежей из outbox.
	TopicOrderEvents = "shop.order.events"
	// TopicDeadLetterQueue принимает сообщения, исчерпавшие retry публикации.
	TopicDeadLetterQueue = "shop.dlq"
)
