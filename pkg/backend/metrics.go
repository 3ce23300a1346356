package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rgeron/next-hackaton/pkg/proto"
)

var (
	operationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hackteam",
		Subsystem: "workflow",
		Name:      "operations_total",
		Help:      "The total number of workflow operations by outcome",
	}, []string{"operation", "result"})

	conflictCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hackteam",
		Subsystem: "workflow",
		Name:      "conflicts_total",
		Help:      "The total number of concurrent modifications detected on team writes",
	}, []string{"operation"})

	compensationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hackteam",
		Subsystem: "workflow",
		Name:      "compensations_total",
		Help:      "The total number of compensating writes by outcome",
	}, []string{"operation", "result"})
)

// observe records the outcome of operation and returns err unchanged.
func observe(operation string, err error) error {
	result := "ok"
	if err != nil {
		result = string(proto.KindOf(err))
	}
	operationCounter.WithLabelValues(operation, result).Inc()
	return err
}
