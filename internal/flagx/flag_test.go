package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		names []string
		want  []string
	}{
		{
			name:  "short flag with separate value",
			args:  []string{"-c", "conf.json", "-a", "localhost"},
			names: []string{"c", "config"},
			want:  []string{"-c", "conf.json"},
		},
		{
			name:  "double dash with equals",
			args:  []string{"--config=alt.json", "-a", "localhost"},
			names: []string{"c", "config"},
			want:  []string{"--config=alt.json"},
		},
		{
			name:  "names may be given with dashes",
			args:  []string{"-batch-size", "50"},
			names: []string{"-batch-size"},
			want:  []string{"-batch-size", "50"},
		},
		{
			name:  "unknown flags and positionals ignored",
			args:  []string{"-x", "1", "--y=2", "positional"},
			names: []string{"c"},
			want:  []string{},
		},
		{
			name:  "trailing flag without value kept",
			args:  []string{"-c"},
			names: []string{"c"},
			want:  []string{"-c"},
		},
		{
			name:  "next dash token is not a value",
			args:  []string{"-c", "--config=alt.json"},
			names: []string{"c", "config"},
			want:  []string{"-c", "--config=alt.json"},
		},
		{
			name:  "repeated flag preserved in order",
			args:  []string{"-o", "http://a", "-o", "http://b"},
			names: []string{"o"},
			want:  []string{"-o", "http://a", "-o", "http://b"},
		},
		{
			name:  "empty args",
			args:  nil,
			names: []string{"c"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.names...))
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short flag", func(t *testing.T) {
		t.Setenv(ConfigEnvName, "")
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("last flag wins", func(t *testing.T) {
		t.Setenv(ConfigEnvName, "")
		assert.Equal(t, "/path/2.json", ConfigPath([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(ConfigEnvName, "/etc/keys.json")
		assert.Equal(t, "/etc/keys.json", ConfigPath([]string{"-x", "1"}))
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(ConfigEnvName, "/etc/keys.json")
		assert.Equal(t, "local.json", ConfigPath([]string{"-config=local.json"}))
	})

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv(ConfigEnvName, "")
		assert.Empty(t, ConfigPath(nil))
	})
}
