package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	otpRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_otp_requests_total",
			Help: "Total OTP check-in requests",
		},
	)

	otpVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_otp_verifications_total",
			Help: "Total OTP verification attempts by result",
		},
		[]string{"result"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_tickets_issued_total",
			Help: "Total tickets issued per queue type",
		},
		[]string{"queue_type"},
	)

	ticketsReissued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_tickets_reissued_total",
			Help: "Total tickets reissued per queue type",
		},
		[]string{"queue_type"},
	)

	queueAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_queue_advances_total",
			Help: "Total admin queue advances per queue type",
		},
		[]string{"queue_type"},
	)
)

func RecordOtpRequest() {
	otpRequests.Inc()
}

func RecordOtpVerification(result string) {
	otpVerifications.WithLabelValues(result).Inc()
}

func RecordTicketIssued(queueType string) {
	ticketsIssued.WithLabelValues(queueType).Inc()
}

func RecordTicketReissued(queueType string) {
	ticketsReissued.WithLabelValues(queueType).Inc()
}

func RecordQueueAdvance(queueType string) {
	queueAdvances.WithLabelValues(queueType).Inc()
}
