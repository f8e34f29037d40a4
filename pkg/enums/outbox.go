package enums

// OutboxEventType enumerates the domain events the core emits.
type OutboxEventType string

const (
	EventOrderStarted      OutboxEventType = "order.started"
	EventOrderSummaryReady OutboxEventType = "order.summary_ready"
	EventDeadlineReminder  OutboxEventType = "order.deadline_reminder"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)

// OutboxStatus tracks delivery of an outbox row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)
