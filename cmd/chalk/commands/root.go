package commands

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyluth/chalk/internal/cache"
	"github.com/dyluth/chalk/internal/config"
	"github.com/dyluth/chalk/internal/storage"
	"github.com/dyluth/chalk/pkg/blackboard"
)

var (
	version string
	commit  string
	date    string
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chalk",
	Short: "Chalk - shared blackboard memory for multi-agent tasks",
	Long: `Chalk is the shared-memory coordination layer for multi-agent task
execution. Agents read and write plans, per-step results and context
descriptions on a Redis-backed blackboard, and fetch external documents
through a content-addressed cache with background eviction.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "chalk.yml", "path to the chalk configuration file")
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// newStore builds the blackboard store from the loaded configuration.
// The caller owns the store and must Close it.
func newStore(cfg *config.Config) (*blackboard.Store, error) {
	return blackboard.NewStore(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.TTL.Std())
}

// newRegistry builds the storage backend registry. The file and http(s)
// schemes are always available; s3 and sftp register only when configured.
func newRegistry(cfg *config.Config) (*storage.Registry, error) {
	reg := storage.NewRegistry()
	reg.Register("file", storage.NewFileBackend())

	httpBackend := storage.NewHTTPBackend(http.DefaultClient)
	reg.Register("http", httpBackend)
	reg.Register("https", httpBackend)

	if s3cfg := cfg.Storage.S3; s3cfg != nil {
		backend, err := storage.NewS3Backend(s3cfg.Endpoint, s3cfg.AccessKey, s3cfg.SecretKey, s3cfg.UseSSL)
		if err != nil {
			return nil, err
		}
		reg.Register("s3", backend)
	}

	if sftpCfg := cfg.Storage.SFTP; sftpCfg != nil {
		backend, err := storage.NewSFTPBackend(sftpCfg.Addr, sftpCfg.User, sftpCfg.Password)
		if err != nil {
			return nil, err
		}
		reg.Register("sftp", backend)
	}

	return reg, nil
}

// newCache builds the blob cache on whichever backend serves the configured
// cache path's scheme.
func newCache(cfg *config.Config, reg *storage.Registry, logger *zap.Logger) (*cache.Cache, storage.Backend, error) {
	backend, err := reg.ForLocator(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("cache_path: %w", err)
	}
	return cache.New(backend, cfg.CachePath, logger), backend, nil
}
