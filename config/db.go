package config

import (
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
)

const (
	defaultDBFilename = "schedd.db"
	// DefaultDBTimeout specifies the timeout value when opening the bbolt
	// database.
	DefaultDBTimeout = time.Second * 10
)

// DBConfig holds the configuration of the schedule database.
type DBConfig struct {
	// DBPath is the directory path in which the database file should be
	// stored.
	DBPath string `long:"dbpath" description:"The directory path in which the database file should be stored."`

	// DBFileName is the name of the database file.
	DBFileName string `long:"dbfilename" description:"The name of the database file."`

	// NoFreelistSync, if true, prevents the database from syncing its
	// freelist to disk, resulting in improved performance at the expense of
	// increased startup time.
	NoFreelistSync bool `long:"nofreelistsync" description:"Whether the databases used within schedd should sync their freelist to disk. This is set to true by default, meaning we don't sync the free-list resulting in improved memory performance during operation, but with an increase in startup time."`

	// AutoCompact specifies if a bbolt database should be automatically
	// compacted on startup, if the minimum age of the database file is met.
	AutoCompact bool `long:"autocompact" description:"Whether the databases used within schedd should automatically be compacted on startup (if the database(s) individually exceed the configured minimum age)."`

	// AutoCompactMinAge specifies the minimum time that must have passed
	// since a bbolt database file was last compacted for the compaction to
	// be considered again.
	AutoCompactMinAge time.Duration `long:"autocompactminage" description:"How long ago (in hours) the database file must be last compacted for it to be considered for auto compaction again."`

	// DBTimeout specifies the timeout value to use when opening the wallet
	// database.
	DBTimeout time.Duration `long:"dbtimeout" description:"Specify the timeout value used when opening the database."`
}

func DefaultDBConfig() *DBConfig {
	return DefaultDBConfigWithHomePath(DefaultScheddDir)
}

func DefaultDBConfigWithHomePath(homePath string) *DBConfig {
	return &DBConfig{
		DBPath:            DataDir(homePath),
		DBFileName:        defaultDBFilename,
		NoFreelistSync:    true,
		AutoCompact:       false,
		AutoCompactMinAge: kvdb.DefaultBoltAutoCompactMinAge,
		DBTimeout:         DefaultDBTimeout,
	}
}

// GetDBBackend opens (or creates) the bbolt backend described by the config.
func (cfg *DBConfig) GetDBBackend() (kvdb.Backend, error) {
	return kvdb.GetBoltBackend(&kvdb.BoltBackendConfig{
		DBPath:            cfg.DBPath,
		DBFileName:        cfg.DBFileName,
		NoFreelistSync:    cfg.NoFreelistSync,
		AutoCompact:       cfg.AutoCompact,
		AutoCompactMinAge: cfg.AutoCompactMinAge,
		DBTimeout:         cfg.DBTimeout,
	})
}
