package conf

import (
	"testing"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeTimeout(t *testing.T, raw any) (Duration, error) {
	t.Helper()
	var out struct {
		Timeout Duration `mapstructure:"timeout"`
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DurationDecodeHook(),
		Result:     &out,
	})
	require.NoError(t, err)
	err = dec.Decode(map[string]any{"timeout": raw})
	return out.Timeout, err
}

func TestDurationDecodeHook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", raw: "30s", want: 30 * time.Second},
		{name: "minutes", raw: "5m", want: 5 * time.Minute},
		{name: "int nanoseconds", raw: 1_000_000_000, want: time.Second},
		{name: "float nanoseconds", raw: 2e9, want: 2 * time.Second},
		{name: "garbage", raw: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeTimeout(t, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "expected format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Std())
		})
	}
}

func TestDuration_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1m30s", Duration(90*time.Second).String())
}

func TestLoad_DurationFromEnv(t *testing.T) {
	t.Setenv("BHV_DELIVERY_TIMEOUT", "3s")

	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, settings.Delivery.Timeout.Std())
}
