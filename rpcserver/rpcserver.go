// Package rpcserver exposes the schedule intake API of the daemon over
// JSON-RPC.
package rpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/txsched/txsched/metrics"
	"github.com/txsched/txsched/scheduler"
	"github.com/txsched/txsched/scheduler/store"
	"github.com/txsched/txsched/types"
	"github.com/txsched/txsched/version"
)

// apiNamespace prefixes every served method, e.g. schedd_scheduleTransaction.
const apiNamespace = "schedd"

// ScheduleAPI is the intake surface of the daemon: payloads enter the
// schedule store only through it, after their condition passes verification.
type ScheduleAPI struct {
	verifier     *scheduler.Verifier
	store        *store.ScheduleStore
	metrics      *metrics.SchedulerMetrics
	latestHeight func() uint64
	logger       *zap.Logger
}

func NewScheduleAPI(
	logger *zap.Logger,
	verifier *scheduler.Verifier,
	st *store.ScheduleStore,
	metrics *metrics.SchedulerMetrics,
	latestHeight func() uint64,
) *ScheduleAPI {
	return &ScheduleAPI{
		logger:       logger,
		verifier:     verifier,
		store:        st,
		metrics:      metrics,
		latestHeight: latestHeight,
	}
}

// ScheduleTransaction accepts a pre-signed raw transaction together with its
// release condition, {"time": <unix seconds>} or {"block": "0x<hex>"}. The
// condition must pass verification against the latest known height and the
// clock before the payload is stored.
func (a *ScheduleAPI) ScheduleTransaction(_ context.Context, condition json.RawMessage, payload hexutil.Bytes) error {
	cond, err := types.UnmarshalCondition(condition)
	if err != nil {
		return err
	}

	if err := a.verifier.Verify(cond, a.latestHeight(), time.Now()); err != nil {
		return err
	}

	if err := a.store.Add(cond, payload); err != nil {
		return err
	}

	a.metrics.IncScheduled(cond.Kind().String())
	a.logger.Info("accepted a scheduled transaction",
		zap.Stringer("condition", cond),
		zap.Int("payload_bytes", len(payload)))

	return nil
}

// Pending returns how many payloads are waiting on the given trigger kind,
// "time" or "block".
func (a *ScheduleAPI) Pending(kind string) (int, error) {
	switch kind {
	case types.ConditionTime.String():
		return a.store.Pending(types.ConditionTime)
	case types.ConditionBlock.String():
		return a.store.Pending(types.ConditionBlock)
	default:
		return 0, fmt.Errorf("unknown trigger kind: %s", kind)
	}
}

// Info returns general information relating to the active daemon.
func (a *ScheduleAPI) Info() string {
	return version.RPC()
}

// Server serves the schedule API over HTTP.
type Server struct {
	rpcServer  *rpc.Server
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
}

func New(logger *zap.Logger, api *ScheduleAPI) (*Server, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(apiNamespace, api); err != nil {
		return nil, fmt.Errorf("failed to register the schedule API: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		logger:    logger,
	}, nil
}

// Start begins accepting requests on addr.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.rpcServer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("starting the RPC server",
			zap.String("address", listener.Addr().String()))
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("the RPC server failed", zap.Error(err))
		}
	}()

	return nil
}

// ListenAddr returns the bound address. Valid only after Start.
func (s *Server) ListenAddr() string {
	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	s.rpcServer.Stop()

	return s.httpServer.Shutdown(context.Background())
}
