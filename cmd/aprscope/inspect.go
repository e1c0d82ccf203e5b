package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aprScope/internal/api"
	"aprScope/internal/chain"
	"aprScope/internal/config"
	"aprScope/internal/dashboard"
	"aprScope/internal/dex"
	"aprScope/internal/feed"
	"aprScope/internal/logging"
	"aprScope/internal/terminal"
)

type session struct {
	cfg    config.Config
	loc    *time.Location
	logger *zap.Logger
	client *api.Client
	pairs  []dashboard.PairOption
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		client: api.NewClient(cfg.BackendURL, api.WithTimeout(cfg.Timeout), api.WithLogger(logger)),
		pairs:  pairOptions(cfg.Pairs),
	}, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runAPR(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	ctx, stop := commandContext()
	defer stop()

	pair, err := pairArg(s.pairs, args)
	if err != nil {
		return err
	}
	view, err := dashboard.NewView(ctx, s.client,
		dashboard.WithPairs([]dashboard.PairOption{pair}),
		dashboard.WithWindow(s.cfg.Window),
		dashboard.WithLocation(s.loc),
		dashboard.WithLogger(s.logger),
	)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	defer view.Close()

	snap, err := view.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), terminal.Dashboard(snap, s.loc))
	if snap.Model.Status == dashboard.StatusError {
		return fmt.Errorf("load apr: %s", snap.Model.Error)
	}
	return nil
}

func runPair(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	ctx, stop := commandContext()
	defer stop()

	pair, err := pairArg(s.pairs, args)
	if err != nil {
		return err
	}
	address := pair.Address
	if s.cfg.RPCURL != "" && !common.IsHexAddress(address) {
		return fmt.Errorf("invalid pair address: %s", address)
	}

	q := feed.NewPairQuery(ctx, s.client, s.logger)
	defer q.Close()
	q.SetParams(feed.PairParams{Address: address})

	st, err := q.Wait(ctx)
	if err != nil {
		return err
	}
	if st.Err != nil {
		return st.Err
	}
	fmt.Fprintln(cmd.OutOrStdout(), terminal.Pair(st.Data, s.loc))

	if s.cfg.RPCURL == "" {
		return nil
	}
	chainClient, err := chain.NewClient(ctx, s.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	if err := chainClient.EnsureChainID(ctx, s.cfg.ChainID); err != nil {
		return err
	}

	onchain, err := dex.FetchPairState(ctx, chainClient, common.HexToAddress(address), dex.NewTokenMetaCache(), s.logger)
	if err != nil {
		return fmt.Errorf("read pair on-chain: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), terminal.OnchainPair(onchain))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	startDate, _ := cmd.Flags().GetString("start-date")
	endDate, _ := cmd.Flags().GetString("end-date")
	limit, _ := cmd.Flags().GetInt("limit")

	ctx, stop := commandContext()
	defer stop()

	pair, err := pairArg(s.pairs, args)
	if err != nil {
		return err
	}

	q := feed.NewHistoryQuery(ctx, s.client, s.logger)
	defer q.Close()
	q.SetParams(feed.HistoryParams{
		Address:   pair.Address,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
	})

	st, err := q.Wait(ctx)
	if err != nil {
		return err
	}
	if st.Err != nil {
		return st.Err
	}
	fmt.Fprintln(cmd.OutOrStdout(), terminal.History(st.Data, st.Meta, s.loc))
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	ctx, stop := commandContext()
	defer stop()

	status, err := s.client.Health(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), terminal.Health(status, err))
	if err != nil {
		return err
	}
	if !status.Healthy() {
		return fmt.Errorf("backend unhealthy: %s", status.Status)
	}
	return nil
}
