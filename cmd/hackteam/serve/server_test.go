package serve

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"
	"github.com/rgeron/next-hackaton/pkg/backend"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/store"
	"github.com/rgeron/next-hackaton/pkg/store/memdb"
	"github.com/rgeron/next-hackaton/pkg/test"
)

func TestServerStartShutdown(t *testing.T) {
	is := is.New(t)

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.HTTP.ListenAddr = test.LocalAddr()
	cfg.Stats.ListenAddr = test.LocalAddr()
	cfg.Auth.Secret = "secret"

	st, err := memdb.New()
	is.NoErr(err)
	ctx := log.WithContext(context.TODO(), log.New(io.Discard))
	ctx = config.WithContext(ctx, cfg)
	ctx = store.WithContext(ctx, st)
	ctx = backend.WithContext(ctx, backend.New(ctx, cfg, st))

	s, err := NewServer(ctx)
	is.NoErr(err)

	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()

	for _, url := range []string{
		"http://" + cfg.HTTP.ListenAddr + "/livez",
		"http://" + cfg.Stats.ListenAddr + "/metrics",
	} {
		var resp *http.Response
		for i := 0; i < 50; i++ {
			resp, err = http.Get(url) //nolint:gosec
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		is.NoErr(err)
		resp.Body.Close() // nolint: errcheck
		is.Equal(resp.StatusCode, http.StatusOK)
	}

	sctx, cancel := context.WithTimeout(context.TODO(), 5*time.Second)
	defer cancel()
	is.NoErr(s.Shutdown(sctx))
	is.NoErr(<-errc)
}
