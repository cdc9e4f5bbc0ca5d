package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/config"
	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/utils/unittest"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.InitializeFlags(flags, config.DefaultConfig())
	return flags
}

func TestDefaults(t *testing.T) {
	c, err := config.Load(newFlags())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), c)
	assert.Equal(t, ledger.DefaultQuorumThreshold, c.QuorumThreshold())
	assert.Equal(t, hash.SHA3_256, c.NewHasher().Algorithm())
}

func TestPrecedence(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		path := filepath.Join(dir, "config.yaml")
		err := os.WriteFile(path, []byte("max-limit: 50\nmax-batch-size: 5\nhasher: SHA2_256\n"), 0644)
		require.NoError(t, err)

		t.Setenv("TXHISTORY_MAX_LIMIT", "100")
		t.Setenv("TXHISTORY_QUORUM_NUMERATOR", "3")
		t.Setenv("TXHISTORY_QUORUM_DENOMINATOR", "4")

		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--config", path, "--max-limit", "200"}))

		c, err := config.Load(flags)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), c.MaxLimit)
		assert.Equal(t, 5, c.MaxBatchSize)
		assert.Equal(t, hash.SHA2_256, c.Hasher)
		assert.Equal(t, ledger.QuorumThreshold{Numerator: 3, Denominator: 4}, c.QuorumThreshold())
	})
}

func TestValidateReportsField(t *testing.T) {
	c := config.DefaultConfig()
	c.CacheSize = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CacheSize")
}

func TestInvalid(t *testing.T) {
	cases := map[string][]string{
		"unknown hasher":      {"--hasher", "MD5"},
		"zero limit":          {"--max-limit", "0"},
		"zero batch":          {"--max-batch-size", "0"},
		"threshold above one": {"--quorum-numerator", "4", "--quorum-denominator", "3"},
		"zero denominator":    {"--quorum-denominator", "0"},
		"bad log level":       {"--loglevel", "loud"},
		"empty datadir":       {"--datadir", ""},
		"negative rate":       {"--rate-limit=-1"},
		"missing file":        {"--config", "/nonexistent/config.yaml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			flags := newFlags()
			require.NoError(t, flags.Parse(args))
			_, err := config.Load(flags)
			assert.Error(t, err)
		})
	}
}
