package metrics

import (
	"time"
)


type RedisOperation string

const (
	RedisOpGet    RedisOperation = "get"
	RedisOpSet    RedisOperation = "set"
	RedisOpDel    RedisOperation = "del"
	RedisOpExists RedisOperation = "exists"
	RedisOpExpire RedisOperation = "expire"
	RedisOpHGet   RedisOperation = "hget"
	RedisOpHSet   RedisOperation = "hset"
)

type RedisTimer struct {
	service   string
	operation RedisOperation
	start     time.Time
}

func NewRedisTimer(service string, op RedisOperation) *RedisTimer {
	return &RedisTimer{
		service:   service,
		operation: op,
		start:     time.Now(),
	}
}

func (rt *RedisTimer) ObserveDuration() {
	duration := time.Since(rt.start).Seconds()
	RedisOperationDuration.WithLabelValues(rt.service, string(rt.operation)).Observe(duration)
}

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

func RecordRedisError(service string, op RedisOperation) {
	RedisErrors.WithLabelValues(service, string(op)).Inc()
}


func recordKafkaMessageProduced(service, topic string, duration time.Duration) {
	KafkaMessagesProduced.WithLabelValues(service, topic).Inc()
	KafkaProduceDuration.WithLabelValues(service, topic).Observe(duration.Seconds())
}

func RecordKafkaMessageConsumed(service, topic, group string, processingDuration time.Duration) {
	KafkaMessagesConsumed.WithLabelValues(service, topic, group).Inc()
	KafkaConsumeDuration.WithLabelValues(service, topic).Observe(processingDuration.Seconds())
}

func RecordKafkaError(service, topic, operation string) {
	KafkaErrors.WithLabelValues(service, topic, operation).Inc()
}

type KafkaProduceTimer struct {
	service string
	topic   string
	start   time.Time
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		service: service,
		topic:   topic,
		start:   time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	recordKafkaMessageProduced(kt.service, kt.topic, time.Since(kt.start))
}

func (kt *KafkaProduceTimer) Error() {
	RecordKafkaError(kt.service, kt.topic, "produce")
}


func RecordPropagation(entity, action string, created, updated, deleted, linked, skipped int) {
	SyncPropagationsTotal.WithLabelValues(entity, action).Inc()
	addCounterparts(entity, "created", created)
	addCounterparts(entity, "updated", updated)
	addCounterparts(entity, "deleted", deleted)
	addCounterparts(entity, "linked", linked)
	addCounterparts(entity, "skipped", skipped)
}

func addCounterparts(entity, outcome string, n int) {
	if n > 0 {
		SyncCounterpartsTotal.WithLabelValues(entity, outcome).Add(float64(n))
	}
}

func RecordReconcile(trigger string, duration time.Duration, err error, created, linked, repaired, deleted int) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	SyncReconcileRuns.WithLabelValues(trigger, status).Inc()
	SyncReconcileDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	SyncReconcileChanges.WithLabelValues("created").Add(float64(created))
	SyncReconcileChanges.WithLabelValues("linked").Add(float64(linked))
	SyncReconcileChanges.WithLabelValues("repaired").Add(float64(repaired))
	SyncReconcileChanges.WithLabelValues("deleted").Add(float64(deleted))
}

