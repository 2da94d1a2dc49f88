package engine

// Recorder receives engine activity for metrics.
// infra.Metrics implements it.
type Recorder interface {
	OrderAccepted(side string)
	OrderRejected(reason string)
	Traded(item string, price, volume int64)
	GovSold(item string, qty int64)
	CashRemoved(cause string, amount int64)
	ObservePhase(phase string, seconds float64)
}

type nopRecorder struct{}

func (nopRecorder) OrderAccepted(string) {}
func (nopRecorder) OrderRejected(string) {}
func (nopRecorder) Traded(string, int64, int64) {}
func (nopRecorder) GovSold(string, int64) {}
func (nopRecorder) CashRemoved(string, int64) {}
func (nopRecorder) ObservePhase(string, float64) {}
