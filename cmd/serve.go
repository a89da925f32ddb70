package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukydev/carclub/internal/auth"
	"github.com/ukydev/carclub/internal/booking"
	"github.com/ukydev/carclub/internal/cache"
	"github.com/ukydev/carclub/internal/config"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/events"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/handlers"
	"github.com/ukydev/carclub/internal/notice"
	"github.com/ukydev/carclub/internal/state"
)

const shutdownTimeout = 10 * time.Second

// flagKeys maps serve flags onto configuration keys.
var flagKeys = map[string]string{
	"port":        "port",
	"fleet-size":  "fleet.size",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"mongo-uri":   "mongo.uri",
	"redis-addr":  "redis.addr",
	"mqtt-broker": "mqtt.broker",
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			cfg.ConfigureLogging(log.StandardLogger())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 8080, "HTTP listen port")
	flags.Int("fleet-size", 500, "number of generated vehicles")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "text", "log format (text or json)")
	flags.String("mongo-uri", "", "MongoDB URI for users, bookings and the fleet snapshot")
	flags.String("redis-addr", "", "Redis address for the search cache")
	flags.String("mqtt-broker", "", "MQTT broker for state and booking events")
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			log.WithError(err).WithField("flag", name).Fatal("Failed to bind flag")
		}
	}
	return cmd
}

// app is the assembled service with the resources it must release.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires the service from cfg. Storage, cache and events fall back
// to in-process implementations when not configured.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	f := fleet.New(cfg.FleetSize)
	log.WithFields(log.Fields{
		"vehicles":    f.Len(),
		"price_range": f.PriceBounds(),
	}).Info("Fleet generated")

	var (
		users    db.UserCollection    = db.NewMemoryUserCollection()
		bookings db.BookingCollection = db.NewMemoryBookingCollection()
	)
	if cfg.Mongo.URI != "" {
		client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to disconnect from MongoDB")
			}
		})
		database := client.Database(cfg.Mongo.Database)
		users = &db.MongoUserCollection{Collection: database.Collection("users")}
		bookings = &db.MongoBookingCollection{Collection: database.Collection("bookings")}

		vehicles := &db.MongoFleetCollection{Collection: database.Collection("vehicles")}
		changed, err := vehicles.ReplaceFleet(ctx, f.All())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("export fleet: %w", err)
		}
		log.WithField("changed", changed).Info("Fleet snapshot exported to MongoDB")
	}

	var provider cache.Provider = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		r, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "carclub:")
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = r.Close() })
		provider = r
	}

	notices := notice.NewService(log.StandardLogger())
	var observers []state.Observer
	var publisher booking.Publisher
	if cfg.MQTT.Broker != "" {
		p, err := events.Connect(events.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Prefix:   cfg.MQTT.Prefix,
			QoS:      1,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		observers = append(observers, p)
		publisher = p
		notices.Listen(p.NoticeShown)
	}

	tokens := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if _, err := auth.SeedDemoUser(ctx, tokens, users); err != nil {
		a.close()
		return nil, err
	}

	sessions := state.NewSessions(f.PriceBounds(), observers...)
	expireCtx, stopExpiry := context.WithCancel(ctx)
	a.closers = append(a.closers, stopExpiry)
	go sessions.Expire(expireCtx, cfg.SessionIdle, sessionSweepInterval(cfg.SessionIdle))

	a.handler = handlers.NewRouter(handlers.Deps{
		Fleet:         f,
		Sessions:      sessions,
		Notices:       notices,
		Cache:         provider,
		CacheTTL:      cfg.CacheTTL,
		Authenticator: auth.NewAuthenticator(tokens, users, cfg.SignInDelay),
		Users:         users,
		Bookings:      booking.NewService(f, bookings, publisher, cfg.BookingDelay),
		RateLimit:     cfg.RateLimit,
		RateWindow:    cfg.RateWindow,
		TrustProxy:    cfg.TrustProxy,
	})
	return a, nil
}

// sessionSweepInterval checks for idle sessions a few times per ttl but
// no more than once a minute.
func sessionSweepInterval(idle time.Duration) time.Duration {
	if every := idle / 4; every > time.Minute {
		return every
	}
	return time.Minute
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down the server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
