package health

import "time"

// Status is the liveness payload.
type Status struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Service encapsulates health-related checks.
type Service struct {
	now func() time.Time
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{now: time.Now}
}

// Status reports the process as up along with the current time.
func (s *Service) Status() Status {
	return Status{Status: "ok", Timestamp: s.now().UTC()}
}
