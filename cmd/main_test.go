package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/teamforge/crew/internal/adapters/http/api"
	"github.com/teamforge/crew/internal/adapters/repository"
	app "github.com/teamforge/crew/internal/app"
	"github.com/teamforge/crew/internal/config"
	"github.com/teamforge/crew/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("CREW_ADDR", ":8080")
			_ = os.Setenv("CREW_FETCH_LIMIT", "150")
			defer func() {
				_ = os.Unsetenv("CREW_ADDR")
				_ = os.Unsetenv("CREW_FETCH_LIMIT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FetchLimit, convey.ShouldEqual, 150)
			})
		})

		convey.Convey("When testing service creation", func() {
			store := repository.NewMemStore()
			svc := app.New(
				app.WithProfileStore(store),
				app.WithContestStore(store.Contests()),
			)
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, svc)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSeedStore(t *testing.T) {
	convey.Convey("Given a seed fixture on disk", t, func() {
		data := []byte(`{
			"profiles": [
				{"id": "alice", "display_name": "Alice",
				 "matching": {"primary_role": "Frontend Dev", "open_to_new_teams": true},
				 "consents": {"allow_matching": true}}
			],
			"contests": [
				{"id": "hack-1", "name": "Autumn Hack", "tags": ["ai"]}
			]
		}`)
		path := filepath.Join(t.TempDir(), "seed.json")
		convey.So(os.WriteFile(path, data, 0o600), convey.ShouldBeNil)

		convey.Convey("When seeding a store from it", func() {
			store := repository.NewMemStore()
			err := seedStore(store, path)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then profiles and contests are loaded", func() {
				ctx := context.Background()
				p, err := store.Get(ctx, "alice")
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.DisplayName, convey.ShouldEqual, "Alice")

				c, err := store.Contests().Get(ctx, "hack-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(c.Name, convey.ShouldEqual, "Autumn Hack")
			})
		})

		convey.Convey("When the seed file is missing", func() {
			err := seedStore(repository.NewMemStore(), filepath.Join(t.TempDir(), "nope.json"))
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the seed file is malformed", func() {
			bad := filepath.Join(t.TempDir(), "bad.json")
			convey.So(os.WriteFile(bad, []byte("{"), 0o600), convey.ShouldBeNil)
			err := seedStore(repository.NewMemStore(), bad)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestFullWiring(t *testing.T) {
	convey.Convey("Given the full application wiring", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		store := repository.NewMemStore()
		svc := app.New(
			app.WithProfileStore(store),
			app.WithContestStore(store.Contests()),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)

		convey.Convey("Then registered routes respond", func() {
			convey.So(mux, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsUpdater(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop exits on context cancellation", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
