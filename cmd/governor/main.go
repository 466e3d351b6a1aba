// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/CodeChain-io/codechain-sub002/api"
	"github.com/CodeChain-io/codechain-sub002/gov"
	"github.com/CodeChain-io/codechain-sub002/kv"
	"github.com/CodeChain-io/codechain-sub002/log"
	"github.com/CodeChain-io/codechain-sub002/lvldb"
	"github.com/CodeChain-io/codechain-sub002/metrics"
)

var (
	version   string
	gitCommit string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%.8s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Governor",
		Usage:     "CodeChain dynamic validator governance service",
		Copyright: "2020 CodeChain <https://codechain.io/>",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			enableMetricsFlag,
			memDBFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("closing database...")
		db.Close()
	}()

	genesis, err := loadGenesis(ctx)
	if err != nil {
		return err
	}

	engine, err := gov.New(kv.Bucket("gov").NewStore(db), genesis)
	if err != nil {
		return err
	}

	handler := api.New(engine, ctx.String(apiCorsFlag.Name), ctx.Bool(enableMetricsFlag.Name))
	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return errors.Wrap(err, "failed to listen API address")
	}
	server := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	head, err := engine.Head()
	if err != nil {
		return err
	}
	logger.Info("governor started", "version", fullVersion(),
		"api", "http://"+listener.Addr().String(), "head", head)

	var group errgroup.Group
	group.Go(func() error {
		if err := server.Serve(listener); err != http.ErrServerClosed {
			return errors.Wrap(err, "API service")
		}
		return nil
	})
	group.Go(func() error {
		<-handleExitSignal()
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func initLogger(ctx *cli.Context) {
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	log.InitTerminal(ctx.Int(verbosityFlag.Name), useColor)
}

func openDB(ctx *cli.Context) (*lvldb.LevelDB, error) {
	if ctx.Bool(memDBFlag.Name) {
		return lvldb.NewMem()
	}
	dir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}
	return lvldb.New(filepath.Join(dir, "governance.db"), lvldb.Options{})
}

func loadGenesis(ctx *cli.Context) (*gov.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return &gov.Genesis{Timestamp: uint64(time.Now().Unix())}, nil
	}
	return gov.LoadGenesis(path)
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".codechain-governor")
	}
	return ""
}

func handleExitSignal() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		exit := make(chan os.Signal, 1)
		signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
		sig := <-exit
		logger.Info("exit signal received", "signal", sig)
		close(done)
	}()
	return done
}
