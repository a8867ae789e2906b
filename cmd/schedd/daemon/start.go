package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/txsched/txsched/chainclient"
	"github.com/txsched/txsched/config"
	"github.com/txsched/txsched/log"
	"github.com/txsched/txsched/metrics"
	"github.com/txsched/txsched/rpcserver"
	"github.com/txsched/txsched/scheduler"
	"github.com/txsched/txsched/scheduler/store"
	"github.com/txsched/txsched/types"
	"github.com/txsched/txsched/util"
)

// CommandStart returns the start command of the schedd daemon.
func CommandStart(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "start",
		Short:   "Start the scheduled transaction release daemon.",
		Long:    `Start the release daemon. Note that the home directory should be initialized beforehand`,
		Example: fmt.Sprintf(`%s start --home /home/user/.schedd`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runStartCmd,
	}
	cmd.Flags().String(homeFlag, config.DefaultScheddDir, "The application home directory")

	return cmd
}

func runStartCmd(cmd *cobra.Command, _ []string) error {
	home, err := cmd.Flags().GetString(homeFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", homeFlag, err)
	}

	homePath, err := filepath.Abs(home)
	if err != nil {
		return fmt.Errorf("failed to get home path: %w", err)
	}
	homePath = util.CleanAndExpandPath(homePath)

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize the logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedulerMetrics := metrics.NewSchedulerMetrics()

	metricsAddr, err := cfg.Metrics.Address()
	if err != nil {
		return fmt.Errorf("invalid metrics configuration: %w", err)
	}
	metricsServer := metrics.Start(logger, metricsAddr)
	defer func() {
		if err := metricsServer.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shut down the metrics server", zap.Error(err))
		}
	}()

	db, err := cfg.DatabaseConfig.GetDBBackend()
	if err != nil {
		return fmt.Errorf("failed to open the database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close the database", zap.Error(err))
		}
	}()

	scheduleStore, err := store.NewScheduleStore(db)
	if err != nil {
		return fmt.Errorf("failed to initialize the schedule store: %w", err)
	}

	pendingBlocks, err := scheduleStore.Pending(types.ConditionBlock)
	if err != nil {
		return err
	}
	pendingTimes, err := scheduleStore.Pending(types.ConditionTime)
	if err != nil {
		return err
	}
	logger.Info("loaded the schedule store",
		zap.Int("pending_by_block", pendingBlocks),
		zap.Int("pending_by_time", pendingTimes))

	chainClient, err := chainclient.Dial(ctx, cfg.ChainRPCAddress, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := chainClient.Close(); err != nil {
			logger.Error("failed to close the chain client", zap.Error(err))
		}
	}()

	latestBlock, err := chainClient.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to query the latest block: %w", err)
	}

	poller := scheduler.NewHeightPoller(logger, cfg.PollerConfig, chainClient, schedulerMetrics)
	if err := poller.Start(latestBlock.Height); err != nil {
		return err
	}
	defer func() {
		if err := poller.Stop(); err != nil {
			logger.Error("failed to stop the height poller", zap.Error(err))
		}
	}()

	verifier := scheduler.NewVerifier(cfg.MaxFutureBlocks, scheduler.DefaultMaxFutureAge, logger)
	scheduleAPI := rpcserver.NewScheduleAPI(
		logger, verifier, scheduleStore, schedulerMetrics, poller.LastHeight,
	)
	rpcServer, err := rpcserver.New(logger, scheduleAPI)
	if err != nil {
		return fmt.Errorf("failed to create the RPC server: %w", err)
	}
	if err := rpcServer.Start(cfg.RPCListener); err != nil {
		return fmt.Errorf("failed to start the RPC server: %w", err)
	}
	defer func() {
		if err := rpcServer.Stop(); err != nil {
			logger.Error("failed to stop the RPC server", zap.Error(err))
		}
	}()

	submitter := scheduler.NewSubmitter(
		logger,
		cfg.SubmitterConfig,
		scheduleStore,
		[]scheduler.Sink{chainClient},
		schedulerMetrics,
		poller.BlockChan(),
	)
	if err := submitter.Start(); err != nil {
		return err
	}
	defer func() {
		if err := submitter.Stop(); err != nil {
			logger.Error("failed to stop the submitter", zap.Error(err))
		}
	}()

	logger.Info("schedd is running",
		zap.Uint64("latest_height", latestBlock.Height),
		zap.String("chain_rpc", cfg.ChainRPCAddress),
		zap.String("rpc_listener", cfg.RPCListener))

	<-ctx.Done()
	logger.Info("shutting down")

	return nil
}
