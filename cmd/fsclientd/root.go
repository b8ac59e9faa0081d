// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command fsclientd is the composition root: it loads configuration,
// wires the Metadata client, Segment Manager, I/O Thread Pool, backend
// store, Registry and Leader together, and runs until signaled to
// stop. Everything that makes it a filesystem (the FUSE adapter) is
// out of scope (spec §1); this binary exposes the Leader over nothing
// more than its own lifecycle for now.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/yigfs/fsclient/cfg"
	"github.com/yigfs/fsclient/internal/backend"
	"github.com/yigfs/fsclient/internal/ioengine"
	"github.com/yigfs/fsclient/internal/leader"
	"github.com/yigfs/fsclient/internal/logger"
	"github.com/yigfs/fsclient/internal/metaclient"
	"github.com/yigfs/fsclient/internal/metrics"
	"github.com/yigfs/fsclient/internal/registry"
	"github.com/yigfs/fsclient/internal/segment"
)

var (
	cfgFile      string
	bindErr      error
	unmarshalErr error
)

var rootCmd = &cobra.Command{
	Use:   "fsclientd",
	Short: "Runs the local Leader subsystem of the FS client.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		config, err := cfg.Load()
		if err != nil {
			return err
		}
		return run(cmd.Context(), config)
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		unmarshalErr = fmt.Errorf("fsclientd: reading config file: %w", err)
	}
}

// run builds every collaborator from config and blocks until an
// interrupt or terminate signal arrives, then releases the Leader.
func run(ctx context.Context, config *cfg.Config) error {
	if err := logger.Init(logger.Options{
		Severity: config.Logging.Level,
		Format:   config.Logging.Format,
		LogFile:  config.Logging.FilePath,
	}); err != nil {
		return fmt.Errorf("fsclientd: initializing logger: %w", err)
	}
	defer logger.Close()

	metaClient := metaclient.NewClient(metaclient.Config{
		BaseURL: config.Metadata.URL,
		Region:  config.Metadata.Region,
		Bucket:  config.Metadata.Bucket,
		Zone:    config.Metadata.Zone,
		Machine: config.Metadata.Machine,
		Retries: config.Metadata.Retries,
	})
	if e := metaClient.Mount(ctx); !e.IsSuccess() {
		return fmt.Errorf("fsclientd: mount handshake with metadata service failed: %s", e)
	}

	var store backend.Store = backend.NoopStore{}
	if config.Backend.Enabled {
		s3Store, err := backend.NewS3Store(ctx, backend.S3Config{
			Region:   config.Backend.Region,
			Bucket:   config.Backend.Bucket,
			Endpoint: config.Backend.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("fsclientd: building backend store: %w", err)
		}
		store = s3Store
	}

	segMgr := segment.NewManager(config.Segment.RootDir, config.Segment.DirShards, config.Segment.MaxSizeBytes(), metaClient)

	pool, err := ioengine.NewPool(config.Segment.WorkerPool, store)
	if err != nil {
		return fmt.Errorf("fsclientd: building I/O thread pool: %w", err)
	}

	reg := registry.New()
	var metricsHandle metrics.Handle = metrics.NewNoopHandle()
	if config.Metrics.Enabled {
		mh, err := metrics.NewOtelHandle(otel.GetMeterProvider())
		if err != nil {
			return fmt.Errorf("fsclientd: building metrics handle: %w", err)
		}
		metricsHandle = mh
	}

	l := leader.New(config.Metadata.Machine, reg, segMgr, pool, metricsHandle)
	// The FUSE adapter (out of scope) would drive l's Open/Read/Write/Close from here.

	logger.Infof("fsclientd: ready, machine=%s bucket=%s", config.Metadata.Machine, config.Metadata.Bucket)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Infof("fsclientd: shutting down")
	l.Release()
	return pool.Stop(context.Background())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
