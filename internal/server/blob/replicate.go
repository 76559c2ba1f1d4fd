package blob

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/archivekeeper/internal/logging"
)

const replicaOpTimeout = 5 * time.Minute

// ReplicatedSink writes through to a primary sink and mirrors puts and
// deletes to replica sinks in the background. Replica failures are logged
// and never surface to the caller: cloud replication is fire-and-forget,
// the primary sink is authoritative.
type ReplicatedSink struct {
	primary  Sink
	replicas []Sink
	logger   logging.Logger

	wg sync.WaitGroup
}

// NewReplicatedSink wraps primary, mirroring mutations to replicas.
func NewReplicatedSink(primary Sink, logger logging.Logger, replicas ...Sink) *ReplicatedSink {
	return &ReplicatedSink{primary: primary, replicas: replicas, logger: logger}
}

func (s *ReplicatedSink) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	n, err := s.primary.Put(ctx, key, r)
	if err != nil {
		return 0, err
	}

	for _, replica := range s.replicas {
		s.wg.Add(1)
		go func(replica Sink) {
			defer s.wg.Done()
			// Detached from the request context: the caller does not
			// wait for replication.
			bgCtx, cancel := context.WithTimeout(context.Background(), replicaOpTimeout)
			defer cancel()

			src, err := s.primary.Open(bgCtx, key)
			if err != nil {
				s.logger.Warn(bgCtx, "replica put: reading primary failed", "key", key, "error", err)
				return
			}
			defer src.Close()

			if _, err := replica.Put(bgCtx, key, src); err != nil {
				s.logger.Warn(bgCtx, "replica put failed", "key", key, "error", err)
			}
		}(replica)
	}
	return n, nil
}

func (s *ReplicatedSink) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.primary.Open(ctx, key)
}

func (s *ReplicatedSink) Delete(ctx context.Context, key string) error {
	if err := s.primary.Delete(ctx, key); err != nil {
		return err
	}

	for _, replica := range s.replicas {
		s.wg.Add(1)
		go func(replica Sink) {
			defer s.wg.Done()
			bgCtx, cancel := context.WithTimeout(context.Background(), replicaOpTimeout)
			defer cancel()

			if err := replica.Delete(bgCtx, key); err != nil {
				s.logger.Warn(bgCtx, "replica delete failed", "key", key, "error", err)
			}
		}(replica)
	}
	return nil
}

func (s *ReplicatedSink) Exists(ctx context.Context, key string) (bool, error) {
	return s.primary.Exists(ctx, key)
}

// Wait blocks until all in-flight replica operations have finished. Used by
// graceful shutdown and by tests.
func (s *ReplicatedSink) Wait() {
	s.wg.Wait()
}
