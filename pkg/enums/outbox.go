package enums

// OutboxEventType names the domain events queued for publication.
type OutboxEventType string

const (
	EventOrderCreated      OutboxEventType = "order.created"
	EventOrderForwarded    OutboxEventType = "order.forwarded"
	EventUnitTransitioned  OutboxEventType = "order.unit_transitioned"
	EventUnitCancelled     OutboxEventType = "order.unit_cancelled"
	EventOrderCancelled    OutboxEventType = "order.cancelled"
	EventCommissionSettled OutboxEventType = "commission.settled"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateCommission OutboxAggregateType = "commission_record"
)
