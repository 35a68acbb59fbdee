package history

import "context"

// Service pairs the async recording path with direct reads: writes go
// through the worker's inbox, reads hit the store directly.
type Service struct {
	worker *Worker
	store  Store
}

func NewService(worker *Worker, store Store) *Service {
	return &Service{worker: worker, store: store}
}

func (s *Service) Record(event Event) {
	s.worker.Record(event)
}

func (s *Service) List(ctx context.Context, limit int) ([]Event, error) {
	return s.store.List(ctx, limit)
}
